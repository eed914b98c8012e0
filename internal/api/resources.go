package api

import (
	"encoding/json"
	"net/http"

	"cmsadmin/internal/model"

	"github.com/go-chi/chi/v5"
)

func (d Dependencies) listResource(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("page") == "" {
		q.Set("page", "1")
	}
	env, err := d.Records.List(r.Context(), actor(r), chi.URLParam(r, "resource"), q)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (d Dependencies) getResource(w http.ResponseWriter, r *http.Request) {
	raw, err := d.Records.Detail(r.Context(), actor(r), chi.URLParam(r, "resource"), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": raw})
}

func (d Dependencies) deleteResource(w http.ResponseWriter, r *http.Request) {
	if err := d.Records.Delete(r.Context(), actor(r), chi.URLParam(r, "resource"), chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) listApplicants(w http.ResponseWriter, r *http.Request) {
	env, err := d.Records.Applicants(r.Context(), actor(r), chi.URLParam(r, "id"), r.URL.Query())
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (d Dependencies) getApplicant(w http.ResponseWriter, r *http.Request) {
	a, err := d.Records.Applicant(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": a})
}

func (d Dependencies) setApplicantStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status model.ApplicantStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if err := d.Records.SetApplicantStatus(r.Context(), actor(r), chi.URLParam(r, "id"), req.Status); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) deleteApplicant(w http.ResponseWriter, r *http.Request) {
	if err := d.Records.DeleteApplicant(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) activatePromotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsActive bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if err := d.Records.ActivatePromotion(r.Context(), actor(r), chi.URLParam(r, "id"), req.IsActive); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) metadataByPage(w http.ResponseWriter, r *http.Request) {
	m, err := d.Records.MetadataByPage(r.Context(), actor(r), chi.URLParam(r, "page"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": m})
}

func (d Dependencies) publishMetadata(w http.ResponseWriter, r *http.Request) {
	if err := d.Records.PublishMetadata(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) updateAssetURL(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL         string `json:"url"`
		FallbackURL string `json:"fallback_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	if err := d.Records.UpdateAssetURL(r.Context(), actor(r), chi.URLParam(r, "id"), req.URL, req.FallbackURL); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
