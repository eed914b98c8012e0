package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/model"
	"cmsadmin/internal/preview"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/schema"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type toast struct {
	User    string
	Level   pubsub.Level
	Message string
}

// MockEventBus implements EventBus for testing
type MockEventBus struct {
	mu      sync.Mutex
	toasts  []toast
	changes []string
}

func (m *MockEventBus) Notify(ctx context.Context, userID string, level pubsub.Level, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, toast{User: userID, Level: level, Message: message})
	return nil
}

func (m *MockEventBus) Changed(ctx context.Context, screen, id, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, screen+":"+id+":"+action)
	return nil
}

func (m *MockEventBus) last() toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) == 0 {
		return toast{}
	}
	return m.toasts[len(m.toasts)-1]
}

type rowCounter struct {
	mu     sync.Mutex
	stages map[string]int
}

func (c *rowCounter) ImportedRows(stage string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stages == nil {
		c.stages = map[string]int{}
	}
	c.stages[stage] += n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, map[string]any{"status": code, "message": "ok", "data": data})
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"status": code, "message": msg})
}

type fixture struct {
	editor  *EditorService
	imports *ImportService
	records *RecordService
	store   *preview.MemoryStore
	bus     *MockEventBus
	rows    *rowCounter
}

func newFixture(t *testing.T, h http.Handler) *fixture {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	log := zap.NewNop()
	client := backend.New(srv.URL, log)
	bus := &MockEventBus{}
	store := preview.NewMemoryStore(16, time.Minute)
	rows := &rowCounter{}

	imports := NewImportService(client, store, bus, log)
	imports.SetRowCounter(rows)
	editor := NewEditorService(client, form.NewChecker(schema.NewCompilerWithCache(16)), NewBinders(nil, 16, time.Minute), bus, log)
	editor.SetImportService(imports)

	return &fixture{
		editor:  editor,
		imports: imports,
		records: NewRecordService(client, bus, log),
		store:   store,
		bus:     bus,
		rows:    rows,
	}
}

var (
	admin      = Actor{UserID: "u1", Role: model.RoleAdmin}
	superAdmin = Actor{UserID: "root", Role: model.RoleSuperAdmin}
)

func strp(s string) *string { return &s }

func savePreview(t *testing.T, store preview.Store, owner string, names ...string) *preview.Preview {
	t.Helper()
	p := &preview.Preview{ID: "prev-" + owner, Owner: owner, FileName: "schedules.xlsx", CreatedAt: time.Now()}
	for _, n := range names {
		p.Records = append(p.Records, model.ScheduleImport{ScheduleName: strp(n)})
	}
	require.NoError(t, store.Save(context.Background(), p))
	return p
}
