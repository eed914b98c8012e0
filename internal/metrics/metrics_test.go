package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cmsadmin/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUploader struct{ err error }

func (s stubUploader) Upload(ctx context.Context, obj storage.Object) (storage.Uploaded, error) {
	if s.err != nil {
		return storage.Uploaded{}, s.err
	}
	return storage.Uploaded{URL: "https://cdn/x", PublicID: "x"}, nil
}

func (s stubUploader) Delete(ctx context.Context, publicID string) error { return nil }

func TestUploaderCountsOutcome(t *testing.T) {
	m := New()
	ok := m.Uploader(stubUploader{})
	bad := m.Uploader(stubUploader{err: errors.New("boom")})

	_, err := ok.Upload(context.Background(), storage.Object{Name: "a.png", Body: strings.NewReader("x")})
	require.NoError(t, err)
	_, err = bad.Upload(context.Background(), storage.Object{Name: "b.png", Body: strings.NewReader("x")})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("error")))
}

func TestObserveBackendAndRows(t *testing.T) {
	m := New()
	m.ObserveBackend("list article", 200, 15*time.Millisecond)
	m.ObserveBackend("list article", 200, 5*time.Millisecond)
	m.ImportedRows("parsed", 12)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.backendRequests.WithLabelValues("list article", "200")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.importedRows.WithLabelValues("parsed")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/forms/{screen}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.Handle("/metrics", m.Handler())

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/forms/article")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/forms/{screen}", "418")))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "cmsadmin_http_requests_total")
}
