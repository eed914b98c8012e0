package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"cmsadmin/internal/spreadsheet"

	"github.com/go-chi/chi/v5"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxWorkbookSize = 10 << 20
)

func templateName(v spreadsheet.Variant) string {
	if v == spreadsheet.ProductLinked {
		return "product_schedule_template.xlsx"
	}
	return "schedule_template.xlsx"
}

func (d Dependencies) scheduleTemplate(w http.ResponseWriter, r *http.Request) {
	v := spreadsheet.ParseVariant(r.URL.Query().Get("variant"))

	var buf bytes.Buffer
	if err := d.Imports.Template(actor(r), &buf, v); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+templateName(v)+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

func (d Dependencies) importSchedules(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookSize)
	if err := r.ParseMultipartForm(maxWorkbookSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form with a file", d.Log)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "file is required", d.Log)
		return
	}
	defer file.Close()

	v := spreadsheet.ParseVariant(r.FormValue("variant"))
	p, err := d.Imports.Preview(r.Context(), actor(r), header.Filename, v, file)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (d Dependencies) getImport(w http.ResponseWriter, r *http.Request) {
	p, err := d.Imports.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (d Dependencies) discardImport(w http.ResponseWriter, r *http.Request) {
	if err := d.Imports.Discard(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d Dependencies) confirmImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", d.Log)
		return
	}
	n, err := d.Imports.Confirm(r.Context(), actor(r), chi.URLParam(r, "id"), req.ProductID)
	if err != nil {
		WriteServiceError(w, err, d.Log)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"rows": n})
}
