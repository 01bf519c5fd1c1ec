package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"leaksift/internal/core"
)

// searchResponse is the read projection for one result page.
type searchResponse struct {
	Query        string       `json:"query"`
	Results      []recordView `json:"results"`
	TotalResults int          `json:"total_results"`
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	SelectedIDs  []int64      `json:"selected_ids"`
}

// recordView is one flattened record annotated with display glyphs.
type recordView struct {
	ID          int64       `json:"id"`
	EntityType  string      `json:"entity_type"`
	EntryNumber int         `json:"entry_number"`
	Fields      []fieldView `json:"fields"`
	InfoLeak    string      `json:"info_leak,omitempty"`
}

type fieldView struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Glyph string `json:"glyph"`
}

// handleSearch serves GET /api/search?query=...&page=N.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		s.respondError(w, r, core.ErrEmptyQuery)
		return
	}
	page := parseIntParam(r, "page", 1)

	result, err := s.service.Search(r.Context(), query, page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := searchResponse{
		Query:        result.Query,
		Results:      make([]recordView, 0, len(result.Records)),
		TotalResults: result.TotalResults,
		Page:         result.Page,
		TotalPages:   result.TotalPages,
		SelectedIDs:  result.SelectedIDs,
	}
	if resp.SelectedIDs == nil {
		resp.SelectedIDs = []int64{}
	}
	for _, rec := range result.Records {
		resp.Results = append(resp.Results, toRecordView(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

func toRecordView(rec core.EntityRecord) recordView {
	view := recordView{
		ID:          rec.ID,
		EntityType:  rec.EntityType,
		EntryNumber: rec.EntryNumber,
		Fields:      make([]fieldView, 0, len(rec.Fields)),
		InfoLeak:    rec.InfoLeak,
	}
	for _, f := range rec.Fields {
		view.Fields = append(view.Fields, fieldView{
			Name:  f.Name,
			Value: f.Value.String(),
			Glyph: glyphFor(f.Name),
		})
	}
	return view
}

// selectionRequest is the body of POST /api/selection.
type selectionRequest struct {
	EntityRecordID int64 `json:"entity_record_id"`
	Selected       bool  `json:"selected"`
}

// handleToggleSelection serves POST /api/selection.
func (s *Server) handleToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid request body",
			Message: "invalid request body",
			Code:    "REQ001",
		})
		return
	}

	if err := s.service.ToggleSelection(r.Context(), req.EntityRecordID, req.Selected); err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExport serves POST /api/export: the CSV document for the current
// selection, as an attachment named result.csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Export(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="result.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc)))
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// handleHealth serves GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parseIntParam reads an integer query parameter, falling back to def when the
// parameter is missing or not a number.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
