package api

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileOpener reads media stored by the local uploader
type FileOpener interface {
	Open(publicID string) (io.ReadCloser, error)
}

// Files serves media written by the local uploader under /files/*. It is
// mounted outside the authenticated API because the public site links to it.
func Files(store FileOpener, log *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		clean := path.Clean("/" + key)
		if key == "" || strings.Contains(key, "..") || clean != "/"+key {
			WriteError(w, http.StatusBadRequest, "invalid_path", "Invalid file path", log)
			return
		}

		file, err := store.Open(key)
		if err != nil {
			WriteError(w, http.StatusNotFound, "not_found", "File not found", log)
			return
		}
		defer file.Close()

		if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Cache-Control", "public, max-age=86400")
		if _, err := io.Copy(w, file); err != nil {
			log.Warn("failed to stream file", zap.String("key", key), zap.Error(err))
		}
	})
	return r
}
