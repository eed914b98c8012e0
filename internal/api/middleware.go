package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/form"
	"cmsadmin/internal/preview"
	"cmsadmin/internal/screen"
	"cmsadmin/internal/service"
	"cmsadmin/internal/spreadsheet"
	"cmsadmin/internal/storage"

	"go.uber.org/zap"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string                `json:"error"`
	Code    string                `json:"code,omitempty"`
	Message string                `json:"message"`
	Fields  form.ValidationErrors `json:"fields,omitempty"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, code int, errCode, message string, log *zap.Logger) {
	writeError(w, code, ErrorResponse{Error: errCode, Code: errCode, Message: message}, log)
}

func writeError(w http.ResponseWriter, code int, resp ErrorResponse, log *zap.Logger) {
	if code >= 500 {
		log.Error("API error", zap.Int("status", code), zap.String("code", resp.Code), zap.String("message", resp.Message))
	} else {
		log.Debug("API error", zap.Int("status", code), zap.String("code", resp.Code), zap.String("message", resp.Message))
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// WriteServiceError maps an error from the service layer to a status code
func WriteServiceError(w http.ResponseWriter, err error, log *zap.Logger) {
	var (
		ve       form.ValidationErrors
		tooLarge *form.FileTooLargeError
		sizeErr  *storage.SizeError
		backErr  *backend.StatusError
	)
	resp := ErrorResponse{Message: err.Error()}
	code := http.StatusInternalServerError

	switch {
	case errors.As(err, &ve):
		code, resp.Code, resp.Fields = http.StatusUnprocessableEntity, "validation_failed", ve
	case errors.As(err, &tooLarge), errors.As(err, &sizeErr):
		code, resp.Code = http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, storage.ErrTypeNotAllowed):
		code, resp.Code = http.StatusBadRequest, "file_type_not_allowed"
	case errors.Is(err, spreadsheet.ErrUnreadableWorkbook):
		code, resp.Code = http.StatusBadRequest, "unreadable_workbook"
	case errors.Is(err, service.ErrForbidden):
		code, resp.Code = http.StatusForbidden, "forbidden"
	case errors.Is(err, screen.ErrUnknownScreen), errors.Is(err, preview.ErrNotFound):
		code, resp.Code = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSubmitInFlight), errors.Is(err, form.ErrUploadInFlight):
		code, resp.Code = http.StatusConflict, "in_flight"
	case errors.Is(err, form.ErrKeyRejected), errors.Is(err, form.ErrPasteBlocked),
		errors.Is(err, form.ErrEventMismatch), errors.Is(err, form.ErrDisabled):
		code, resp.Code = http.StatusUnprocessableEntity, "event_rejected"
	case errors.Is(err, service.ErrInvalidValues):
		code, resp.Code = http.StatusUnprocessableEntity, "invalid_values"
	case errors.Is(err, service.ErrUpdateOnly), errors.Is(err, service.ErrProductRequired),
		errors.Is(err, service.ErrNoImport),
		errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrUnknownField):
		code, resp.Code = http.StatusBadRequest, "invalid_request"
	case errors.As(err, &backErr):
		code, resp.Code = http.StatusBadGateway, "backend_error"
		resp.Message = backErr.Error()
		if backErr.HTTPStatus == http.StatusNotFound {
			code, resp.Code = http.StatusNotFound, "not_found"
		}
	case errors.Is(err, context.DeadlineExceeded):
		code, resp.Code = http.StatusGatewayTimeout, "timeout"
	default:
		resp.Code = "internal_error"
	}
	resp.Error = resp.Code
	writeError(w, code, resp, log)
}

// RequestLogger logs HTTP requests and responses
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip wrapping for WebSocket upgrades - they need direct access to ResponseWriter
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			log.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
