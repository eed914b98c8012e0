package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/model"
	"cmsadmin/internal/preview"
	"cmsadmin/internal/pubsub"
	"cmsadmin/internal/schema"
	"cmsadmin/internal/service"
	"cmsadmin/internal/spreadsheet"
	"cmsadmin/internal/storage"
	"cmsadmin/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test-secret"

type testAPI struct {
	srv  *httptest.Server
	auth *auth.JWTConfig
	hub  *ws.Hub
}

func newTestAPI(t *testing.T, backendHandler http.Handler) *testAPI {
	t.Helper()
	log := zap.NewNop()

	upstream := httptest.NewServer(backendHandler)
	t.Cleanup(upstream.Close)

	client := backend.New(upstream.URL, log)
	hub := ws.NewHub(log)
	go hub.Run()
	bus := pubsub.New(nil, log)
	bus.SetWSHub(hub)

	imports := service.NewImportService(client, preview.NewMemoryStore(16, time.Minute), bus, log)
	editor := service.NewEditorService(client, form.NewChecker(schema.NewCompilerWithCache(16)), service.NewBinders(nil, 16, time.Minute), bus, log)
	editor.SetImportService(imports)

	jwtConfig := auth.NewJWTConfig(secret)
	r := chi.NewRouter()
	r.Mount("/v1", Routes(Dependencies{
		Auth:    jwtConfig,
		Editor:  editor,
		Imports: imports,
		Records: service.NewRecordService(client, bus, log),
		Hub:     hub,
		Log:     log,
	}))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testAPI{srv: srv, auth: jwtConfig, hub: hub}
}

func (a *testAPI) token(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	tok, err := a.auth.Issue(userID, role, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testAPI) doJSON(t *testing.T, method, path, token string, v any) *http.Response {
	t.Helper()
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	return a.do(t, method, path, token, body, "application/json")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func writeEnvelope(w http.ResponseWriter, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": code, "message": msg, "data": data})
}

func productValues() map[string]any {
	return map[string]any{
		"product_name":        "Go Fundamentals",
		"product_description": "Three days of Go",
		"product_category":    "Programming",
		"skill_level":         "BEGINNER",
		"language":            "INDONESIA",
		"max_participant":     20,
		"duration":            3,
	}
}

func TestRoutes_RequiresToken(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())

	resp := a.do(t, http.MethodGet, "/v1/menu", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/v1/menu", "not-a-jwt", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRoutes_Menu(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())

	resp := a.do(t, http.MethodGet, "/v1/menu", a.token(t, "u1", model.RoleAdmin), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[menuResponse](t, resp)
	assert.Equal(t, "ADMIN", body.Role)
	require.NotEmpty(t, body.Items)
	assert.Equal(t, "Home", body.Items[0].Text)
	for _, item := range body.Items {
		assert.NotEqual(t, "Users", item.Text)
	}
}

func TestRoutes_OpenForm(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())
	admin := a.token(t, "u1", model.RoleAdmin)

	resp := a.do(t, http.MethodGet, "/v1/forms/product", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[service.View](t, resp)
	assert.Equal(t, "product", view.Screen)
	assert.Equal(t, "create", view.Mode)

	resp = a.do(t, http.MethodGet, "/v1/forms/user", admin, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/v1/forms/unknown", admin, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/v1/forms/asset", admin, nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutes_Events(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())
	admin := a.token(t, "u1", model.RoleAdmin)

	resp := a.doJSON(t, http.MethodPost, "/v1/forms/product/events", admin, map[string]any{
		"values": productValues(),
		"key":    "duration",
		"event":  map[string]any{"type": "input", "value": "45 minutes"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[service.View](t, resp)
	assert.Equal(t, float64(45), view.Values["duration"])

	resp = a.doJSON(t, http.MethodPost, "/v1/forms/product/events", admin, map[string]any{
		"values": productValues(),
		"key":    "duration",
		"event":  map[string]any{"type": "keydown", "key": "e"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "event_rejected", decode[ErrorResponse](t, resp).Code)

	resp = a.doJSON(t, http.MethodPost, "/v1/forms/product/events", admin, map[string]any{
		"values": productValues(),
		"key":    "banner",
		"event": map[string]any{
			"type":    "select_file",
			"name":    "huge.png",
			"mime":    "image/png",
			"size":    5 << 20,
			"content": "",
		},
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestRoutes_SubmitValidation(t *testing.T) {
	a := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend must not be called, got %s %s", r.Method, r.URL.Path)
	}))
	values := productValues()
	delete(values, "product_category")

	resp := a.doJSON(t, http.MethodPost, "/v1/forms/product/submit", a.token(t, "u1", model.RoleAdmin), map[string]any{"values": values})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[ErrorResponse](t, resp)
	assert.Equal(t, "validation_failed", body.Code)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "product_category", body.Fields[0].Key)
	assert.Equal(t, "Category is required", body.Fields[0].Message)
}

func TestRoutes_SubmitBackendFailureNotifies(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/product/add", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusInternalServerError, "Database unavailable", nil)
	})
	a := newTestAPI(t, mux)
	token := a.token(t, "u1", model.RoleAdmin)

	wsURL := "ws" + strings.TrimPrefix(a.srv.URL, "http") + "/v1/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return a.hub.Subscribers(ws.UserChannel("u1")) == 1 }, time.Second, 10*time.Millisecond)

	resp := a.doJSON(t, http.MethodPost, "/v1/forms/product/submit", token, map[string]any{"values": productValues()})
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Database unavailable", decode[ErrorResponse](t, resp).Message)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "toast", msg["type"])
	assert.Equal(t, "error", msg["level"])
	assert.Equal(t, "Failed to Add Product: Database unavailable", msg["message"])
}

func TestRoutes_SubmitCreated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/product/add", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusCreated, "created", map[string]any{"_id": "p1"})
	})
	a := newTestAPI(t, mux)

	resp := a.doJSON(t, http.MethodPost, "/v1/forms/product/submit", a.token(t, "u1", model.RoleAdmin), map[string]any{"values": productValues()})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	res := decode[service.Result](t, resp)
	assert.Equal(t, "p1", res.RecordID)
}

func TestRoutes_Resources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article/list", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "draft", r.URL.Query().Get("status"))
		writeEnvelope(w, http.StatusOK, "ok", []map[string]any{{"_id": "a1"}})
	})
	mux.HandleFunc("/article/takedown/a1", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, "deleted", nil)
	})
	mux.HandleFunc("/article/detail/missing", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, "Article not found", nil)
	})
	a := newTestAPI(t, mux)
	admin := a.token(t, "u1", model.RoleAdmin)

	resp := a.do(t, http.MethodGet, "/v1/resources/article?status=draft", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = a.do(t, http.MethodDelete, "/v1/resources/article/a1", admin, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/v1/resources/article/missing", admin, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Article not found", decode[ErrorResponse](t, resp).Message)
}

func TestRoutes_ApplicantStatus(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())

	resp := a.doJSON(t, http.MethodPut, "/v1/applicants/ap1/status", a.token(t, "root", model.RoleSuperAdmin), map[string]any{"status": "MAYBE"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = a.doJSON(t, http.MethodPut, "/v1/applicants/ap1/status", a.token(t, "u1", model.RoleAdmin), map[string]any{"status": "HIRED"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoutes_ScheduleWorkbook(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())
	admin := a.token(t, "u1", model.RoleAdmin)

	resp := a.do(t, http.MethodGet, "/v1/schedules/template?variant=product", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "product_schedule_template.xlsx")
	workbook, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("variant", "product"))
	part, err := mw.CreateFormFile("file", "product_schedule_template.xlsx")
	require.NoError(t, err)
	part.Write(workbook)
	require.NoError(t, mw.Close())

	resp = a.do(t, http.MethodPost, "/v1/schedules/import", admin, &body, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[preview.Preview](t, resp)
	assert.Equal(t, spreadsheet.ProductLinked, p.Variant)
	assert.Empty(t, p.Records)

	resp = a.do(t, http.MethodGet, "/v1/schedules/import/"+p.ID, admin, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	other := a.token(t, "u2", model.RoleAdmin)
	resp = a.do(t, http.MethodGet, "/v1/schedules/import/"+p.ID, other, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = a.doJSON(t, http.MethodPost, "/v1/schedules/import/"+p.ID+"/confirm", admin, map[string]any{"product_id": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errBody := decode[ErrorResponse](t, resp)
	assert.Equal(t, "invalid_request", errBody.Code)
	assert.Equal(t, "product id is required", errBody.Message)

	resp = a.do(t, http.MethodDelete, "/v1/schedules/import/"+p.ID, admin, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestRoutes_ImportUnreadable(t *testing.T) {
	a := newTestAPI(t, http.NotFoundHandler())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.xlsx")
	require.NoError(t, err)
	part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	resp := a.do(t, http.MethodPost, "/v1/schedules/import", a.token(t, "u1", model.RoleAdmin), &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "unreadable_workbook", decode[ErrorResponse](t, resp).Code)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir, "http://localhost")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cms"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cms", "logo.png"), []byte("png"), 0o644))

	r := chi.NewRouter()
	r.Mount("/files", Files(store, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/cms/logo.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "png", string(data))

	resp2, err := http.Get(srv.URL + "/files/cms/missing.png")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestWriteServiceError_BackendMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		want string
	}{
		{
			name: "backend message",
			err:  fmt.Errorf("failed to create product: %w", &backend.StatusError{Op: "create product", HTTPStatus: 500, Status: 500, Message: "Database unavailable"}),
			code: http.StatusBadGateway,
			want: "Database unavailable",
		},
		{
			name: "fallback",
			err:  fmt.Errorf("failed to update product: %w", &backend.StatusError{Op: "update product", HTTPStatus: 200, Status: 400}),
			code: http.StatusBadGateway,
			want: "update product failed",
		},
		{
			name: "not found",
			err:  fmt.Errorf("failed to load article: %w", &backend.StatusError{Op: "article detail", HTTPStatus: 404, Message: "Article not found"}),
			code: http.StatusNotFound,
			want: "Article not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteServiceError(rec, tt.err, zap.NewNop())
			assert.Equal(t, tt.code, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.want, body.Message)
		})
	}
}
