package service

import (
	"context"
	"fmt"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/model"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/screen"

	"go.uber.org/zap"
)

type EditorService struct {
	client   *backend.Client
	checker  *form.Checker
	binders  *Binders
	bus      EventBus
	imports  *ImportService
	inflight *inflight
	log      *zap.Logger
}

func NewEditorService(client *backend.Client, checker *form.Checker, binders *Binders, bus EventBus, log *zap.Logger) *EditorService {
	return &EditorService{
		client:   client,
		checker:  checker,
		binders:  binders,
		bus:      bus,
		inflight: newInflight(),
		log:      log,
	}
}

// SetImportService enables schedule imports attached to a product submit
func (s *EditorService) SetImportService(imports *ImportService) {
	s.imports = imports
}

// View is one rendered editor
type View struct {
	Screen   string         `json:"screen"`
	Title    string         `json:"title"`
	Mode     string         `json:"mode"`
	RecordID string         `json:"recordId,omitempty"`
	Values   map[string]any `json:"values"`
	Controls []form.Control `json:"controls"`
}

// SubmitInput carries the values of one create or update
type SubmitInput struct {
	Screen   string
	RecordID string
	Values   map[string]any
	// ImportID names a parsed schedule workbook to create under the product
	// once it is saved. Only the product screen accepts it.
	ImportID string
}

// Result reports a finished submit
type Result struct {
	RecordID string         `json:"recordId,omitempty"`
	Message  string         `json:"message"`
	Import   *ImportOutcome `json:"import,omitempty"`
}

// ImportOutcome is the result of the schedule import that follows a product
// save. The product stays saved when the import fails.
type ImportOutcome struct {
	Rows  int    `json:"rows"`
	Error string `json:"error,omitempty"`
}

func modeOf(recordID string) screen.Mode {
	if recordID == "" {
		return screen.Create
	}
	return screen.Update
}

// load resolves the screen for actor and fills dynamic choices
func (s *EditorService) load(ctx context.Context, actor Actor, name, recordID string) (*screen.Screen, error) {
	sc, err := screenFor(actor, name)
	if err != nil {
		return nil, err
	}
	if sc.UpdateOnly && recordID == "" {
		return nil, ErrUpdateOnly
	}
	if sc.Name == screen.Schedule.Name {
		opts, err := s.productOptions(ctx)
		if err != nil {
			return nil, err
		}
		sc = sc.WithOptions("product_id", opts)
	}
	return sc, nil
}

func (s *EditorService) productOptions(ctx context.Context) ([]form.Option, error) {
	products, err := backend.NewResource[model.Product](s.client, backend.Products).All(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	opts := make([]form.Option, 0, len(products))
	for _, p := range products {
		opts = append(opts, form.Option{Label: p.ProductName, Value: p.ID})
	}
	return opts, nil
}

func (s *EditorService) view(sc *screen.Screen, fb *form.Binder, recordID string, st form.State) *View {
	mode := modeOf(recordID)
	return &View{
		Screen:   sc.Name,
		Title:    sc.Title,
		Mode:     mode.String(),
		RecordID: recordID,
		Values:   st.Map(),
		Controls: fb.RenderAll(sc.FieldsFor(mode), st),
	}
}

// Open renders an editor. With a record id the current values are loaded
// from the backend.
func (s *EditorService) Open(ctx context.Context, actor Actor, name, recordID string) (*View, error) {
	sc, err := s.load(ctx, actor, name, recordID)
	if err != nil {
		return nil, err
	}

	st := form.NewState(nil)
	if recordID != "" {
		raw, err := backend.NewResource[map[string]any](s.client, sc.Resource).Detail(ctx, recordID)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", sc.Name, err)
		}
		st = form.Decode(sc.Fields, raw)
	}

	fb := s.binders.For(FormKey(actor.UserID, sc.Name, recordID))
	return s.view(sc, fb, recordID, st), nil
}

// Apply applies one control event to the posted values and renders the
// result. A rejected event leaves the values as they were and returns the
// rejection.
func (s *EditorService) Apply(ctx context.Context, actor Actor, name, recordID string, values map[string]any, key string, ev form.Event) (*View, error) {
	sc, err := s.load(ctx, actor, name, recordID)
	if err != nil {
		return nil, err
	}
	f, ok := sc.Field(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}

	fb := s.binders.For(FormKey(actor.UserID, sc.Name, recordID))
	st, err := fb.Apply(ctx, f, form.Decode(sc.Fields, values), ev)
	if err != nil {
		return nil, err
	}
	return s.view(sc, fb, recordID, st), nil
}

// Submit validates the values and creates or updates the record. Only one
// submit per user, screen and record runs at a time.
func (s *EditorService) Submit(ctx context.Context, actor Actor, in SubmitInput) (*Result, error) {
	sc, err := s.load(ctx, actor, in.Screen, in.RecordID)
	if err != nil {
		return nil, err
	}
	if in.ImportID != "" && (sc.Name != screen.Product.Name || s.imports == nil) {
		return nil, fmt.Errorf("%w on %s", ErrNoImport, sc.Name)
	}

	key := FormKey(actor.UserID, sc.Name, in.RecordID)
	if !s.inflight.acquire(key) {
		return nil, ErrSubmitInFlight
	}
	defer s.inflight.release(key)

	fb := s.binders.For(key)
	for _, f := range sc.Fields {
		if f.Kind() == form.KindCloudFile && fb.Upload(f.Desc().Key).Busy() {
			return nil, form.ErrUploadInFlight
		}
	}

	mode := modeOf(in.RecordID)
	st := form.Decode(sc.Fields, in.Values)
	if err := sc.Validate(st, mode); err != nil {
		return nil, err
	}
	fields := sc.FieldsFor(mode)
	if err := s.checker.Check(ctx, fields, st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValues, err)
	}

	if in.ImportID != "" {
		// fail before writing the product when the preview is gone
		if _, err := s.imports.Get(ctx, actor, in.ImportID); err != nil {
			return nil, err
		}
	}

	body, err := sc.Body(st, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", sc.Name, err)
	}

	res := backend.NewResource[map[string]any](s.client, sc.Resource)
	var env backend.Envelope[map[string]any]
	if mode == screen.Create {
		env, err = res.Create(ctx, body)
	} else {
		env, err = res.Update(ctx, in.RecordID, body)
	}
	verb := "Add"
	if mode == screen.Update {
		verb = "Update"
	}
	if err != nil {
		s.notify(ctx, actor, pubsub.Error, fmt.Sprintf("Failed to %s %s: %s", verb, sc.Title, err))
		return nil, fmt.Errorf("failed to %s %s: %w", mode, sc.Name, err)
	}

	recordID := in.RecordID
	if recordID == "" {
		recordID = idOf(env.Data)
	}
	s.binders.Drop(key)

	out := &Result{RecordID: recordID, Message: fmt.Sprintf("Success %s %s", verb, sc.Title)}
	s.notify(ctx, actor, pubsub.Success, out.Message)
	if err := s.bus.Changed(ctx, sc.Name, recordID, mode.String()); err != nil {
		s.log.Warn("failed to publish change", zap.String("screen", sc.Name), zap.Error(err))
	}

	if in.ImportID != "" {
		out.Import = s.importAfterProduct(ctx, actor, in.ImportID, recordID)
	}
	return out, nil
}

func (s *EditorService) importAfterProduct(ctx context.Context, actor Actor, importID, productID string) *ImportOutcome {
	if productID == "" {
		return &ImportOutcome{Error: "product saved but the backend returned no id; import the schedules from the schedule page"}
	}
	n, err := s.imports.Confirm(ctx, actor, importID, productID)
	if err != nil {
		s.log.Error("schedule import after product save failed",
			zap.String("product_id", productID),
			zap.String("import_id", importID),
			zap.Error(err))
		return &ImportOutcome{Error: err.Error()}
	}
	return &ImportOutcome{Rows: n}
}

func (s *EditorService) notify(ctx context.Context, actor Actor, level pubsub.Level, msg string) {
	if err := s.bus.Notify(ctx, actor.UserID, level, msg); err != nil {
		s.log.Warn("failed to publish notification", zap.String("user_id", actor.UserID), zap.Error(err))
	}
}

// idOf reads the record id from a create response
func idOf(data map[string]any) string {
	for _, k := range []string{"_id", "id"} {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
