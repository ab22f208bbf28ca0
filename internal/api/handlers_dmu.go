package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dgallion1/dmukit/internal/dmu"
	"github.com/dgallion1/dmukit/internal/doctree"
	"github.com/dgallion1/dmukit/internal/export"
	"github.com/dgallion1/dmukit/internal/store"
	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type paragraphInput struct {
	Index int    `json:"index"`
	Style string `json:"style"`
	Text  string `json:"text"`
}

func (p paragraphInput) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Style, validation.Required),
		validation.Field(&p.Index, validation.Min(0)),
	)
}

type keysRequest struct {
	Paragraphs []paragraphInput `json:"paragraphs"`
}

func (req keysRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Paragraphs, validation.Required),
	)
}

// handleKeys runs the key builder over a posted paragraph list without
// touching the table.
func (s *Server) handleKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	paras := make([]doctree.Paragraph, len(req.Paragraphs))
	for i, p := range req.Paragraphs {
		idx := p.Index
		if idx == 0 {
			idx = i + 1
		}
		paras[i] = doctree.Paragraph{Index: idx, Style: p.Style, Text: p.Text}
	}

	records, err := dmu.Build(paras, s.styles)
	if err != nil {
		code := http.StatusInternalServerError
		if dmu.IsDocumentError(err) {
			code = http.StatusUnprocessableEntity
		}
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, map[string]any{"records": records})
}

func (s *Server) handleListRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.rows.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list rows: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if rows == nil {
		rows = []store.Row{}
	}
	writeJSON(w, map[string]any{"rows": rows, "count": len(rows)})
}

func (s *Server) handleGetRow(w http.ResponseWriter, r *http.Request) {
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	row, err := s.rows.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "row not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to get row: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, row)
}

func (s *Server) handleDeleteRow(w http.ResponseWriter, r *http.Request) {
	id, ok := rowID(w, r)
	if !ok {
		return
	}
	err := s.rows.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "row not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete row: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	rows, err := s.rows.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list rows: "+err.Error(), http.StatusInternalServerError)
		return
	}
	records := make([]dmu.Record, len(rows))
	for i, row := range rows {
		records[i] = row.Record()
	}
	writeJSON(w, dmu.Tree(r.URL.Query().Get("title"), records))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := export.Format(chi.URLParam(r, "format"))
	contentType, ok := export.ContentTypes[format]
	if !ok {
		jsonError(w, "unsupported export format: "+string(format), http.StatusBadRequest)
		return
	}

	rows, err := s.rows.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list rows: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Render fully before writing so a classification error can still
	// produce a JSON error response.
	var buf bytes.Buffer
	ex := &export.Exporter{Table: s.styles, Title: r.URL.Query().Get("title")}
	if err := ex.Write(&buf, format, rows); err != nil {
		jsonError(w, "export failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="dmu.%s"`, format))
	w.Write(buf.Bytes())
}

func rowID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid row id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
