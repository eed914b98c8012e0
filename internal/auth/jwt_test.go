package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cmsadmin/internal/backend"
	"cmsadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	cfg := NewJWTConfig("secret")
	tok, err := cfg.Issue("u1", model.RoleSuperAdmin, time.Hour)
	require.NoError(t, err)

	claims, err := cfg.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, model.RoleSuperAdmin, claims.Role)

	_, err = NewJWTConfig("other").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := cfg.Issue("u1", model.RoleAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = cfg.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	cfg := NewJWTConfig("secret")
	var gotUser, gotToken string
	var gotRole model.Role
	h := cfg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
		gotToken = backend.Token(r.Context())
	}))

	tok, _ := cfg.Issue("u1", model.RoleAdmin, time.Hour)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, model.RoleAdmin, gotRole)
	assert.Equal(t, tok, gotToken)

	req = httptest.NewRequest(http.MethodGet, "/?token="+tok, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, header := range []string{"", "Token abc", "Bearer garbage"} {
		req = httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(model.RoleSuperAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), "u1", model.RoleAdmin))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = req.WithContext(WithUser(req.Context(), "u2", model.RoleSuperAdmin))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
