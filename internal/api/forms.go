package api

import (
	"encoding/json"
	"net/http"

	"cmsadmin/internal/form"
	"cmsadmin/internal/menu"
	"cmsadmin/internal/service"

	"github.com/go-chi/chi/v5"
)

type menuResponse struct {
	Role        string            `json:"role"`
	Permissions []menu.Permission `json:"permissions"`
	Items       []menu.Item       `json:"items"`
}

func (d Dependencies) getMenu(w http.ResponseWriter, r *http.Request) {
	a := actor(r)
	writeJSON(w, http.StatusOK, menuResponse{
		Role:        string(a.Role),
		Permissions: menu.Permissions(a.Role),
		Items:       menu.For(a.Role),
	})
}

func (d Dependencies) openForm(w http.ResponseWriter, r *http.Request) {
	view, err := d.Editor.Open(r.Context(), actor(r), chi.URLParam(r, "screen"), r.URL.Query().Get("id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type EventRequest struct {
	RecordID string          `json:"recordId,omitempty"`
	Values   map[string]any  `json:"values"`
	Key      string          `json:"key"`
	Event    json.RawMessage `json:"event"`
}

func (d Dependencies) applyEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	ev, err := form.DecodeEvent(req.Event)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_event", err.Error(), d.Log)
		return
	}

	view, err := d.Editor.Apply(r.Context(), actor(r), chi.URLParam(r, "screen"), req.RecordID, req.Values, req.Key, ev)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type SubmitRequest struct {
	Values   map[string]any `json:"values"`
	ImportID string         `json:"importId,omitempty"`
}

func (d Dependencies) submitForm(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}

	recordID := r.URL.Query().Get("id")
	res, err := d.Editor.Submit(r.Context(), actor(r), service.SubmitInput{
		Screen:   chi.URLParam(r, "screen"),
		RecordID: recordID,
		Values:   req.Values,
		ImportID: req.ImportID,
	})
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	code := http.StatusOK
	if recordID == "" {
		code = http.StatusCreated
	}
	writeJSON(w, code, res)
}
