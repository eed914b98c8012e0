package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/preview"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/screen"
	"cmsadmin/internal/spreadsheet"

	"go.uber.org/zap"
)

// ImportService turns filled schedule workbooks into schedules. A workbook is
// parsed into a preview first and only sent to the backend once confirmed.
type ImportService struct {
	client *backend.Client
	store  preview.Store
	bus    EventBus
	rows   RowCounter
	log    *zap.Logger

	confirming *inflight
}

func NewImportService(client *backend.Client, store preview.Store, bus EventBus, log *zap.Logger) *ImportService {
	return &ImportService{
		client: client,
		store:  store,
		bus:    bus,
		log:    log,

		confirming: newInflight(),
	}
}

// SetRowCounter reports row counts to c
func (s *ImportService) SetRowCounter(c RowCounter) {
	s.rows = c
}

func (s *ImportService) count(stage string, n int) {
	if s.rows != nil {
		s.rows.ImportedRows(stage, n)
	}
}

// Template writes the empty workbook for v
func (s *ImportService) Template(actor Actor, w io.Writer, v spreadsheet.Variant) error {
	if err := actor.can(screen.Schedule.Perm); err != nil {
		return err
	}
	if err := spreadsheet.Export(w, v); err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}
	return nil
}

// Preview parses a workbook and keeps the records until they are confirmed
// or the preview expires.
func (s *ImportService) Preview(ctx context.Context, actor Actor, fileName string, v spreadsheet.Variant, r io.Reader) (*preview.Preview, error) {
	if err := actor.can(screen.Schedule.Perm); err != nil {
		return nil, err
	}
	report, err := spreadsheet.Parse(r, v)
	if err != nil {
		s.notify(ctx, actor, pubsub.Error, err.Error())
		return nil, err
	}

	p := preview.New(actor.UserID, fileName, v, report)
	if err := s.store.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save import preview: %w", err)
	}
	s.count("parsed", len(p.Records))

	s.log.Info("schedule workbook parsed",
		zap.String("preview_id", p.ID),
		zap.String("file", fileName),
		zap.Int("rows", len(p.Records)),
		zap.Int("header_mismatches", len(p.Mismatches)))
	if len(p.Mismatches) > 0 {
		s.notify(ctx, actor, pubsub.Warning, fmt.Sprintf("%d header cells do not match the template; columns are read by position", len(p.Mismatches)))
	}
	s.notify(ctx, actor, pubsub.Info, fmt.Sprintf("Successfully imported %d schedules. Please review before importing.", len(p.Records)))
	return p, nil
}

// Get returns a preview owned by actor
func (s *ImportService) Get(ctx context.Context, actor Actor, id string) (*preview.Preview, error) {
	if err := actor.can(screen.Schedule.Perm); err != nil {
		return nil, err
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Owner != actor.UserID {
		return nil, preview.ErrNotFound
	}
	return p, nil
}

// Discard drops a preview without importing it
func (s *ImportService) Discard(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Confirm creates every previewed record under productID and returns the
// number of rows sent. The preview is kept when the backend refuses them.
// A preview is confirmed by at most one caller at a time.
func (s *ImportService) Confirm(ctx context.Context, actor Actor, id, productID string) (int, error) {
	if productID == "" {
		s.notify(ctx, actor, pubsub.Error, "Please select a product first")
		return 0, ErrProductRequired
	}
	if !s.confirming.acquire(id) {
		return 0, ErrSubmitInFlight
	}
	defer s.confirming.release(id)

	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return 0, err
	}
	if len(p.Records) == 0 {
		return 0, nil
	}

	if err := s.client.BulkCreateSchedules(ctx, productID, p.Records); err != nil {
		s.notify(ctx, actor, pubsub.Error, "Failed to create schedules: "+err.Error())
		return 0, fmt.Errorf("failed to import schedules: %w", err)
	}
	if err := s.store.Delete(ctx, id); err != nil && !errors.Is(err, preview.ErrNotFound) {
		s.log.Warn("failed to drop import preview", zap.String("preview_id", id), zap.Error(err))
	}
	s.count("confirmed", len(p.Records))

	s.notify(ctx, actor, pubsub.Success, fmt.Sprintf("Success Import %d Schedules", len(p.Records)))
	if err := s.bus.Changed(ctx, screen.Schedule.Name, "", "import"); err != nil {
		s.log.Warn("failed to publish change", zap.Error(err))
	}
	return len(p.Records), nil
}

func (s *ImportService) notify(ctx context.Context, actor Actor, level pubsub.Level, msg string) {
	if err := s.bus.Notify(ctx, actor.UserID, level, msg); err != nil {
		s.log.Warn("failed to publish notification", zap.String("user_id", actor.UserID), zap.Error(err))
	}
}
