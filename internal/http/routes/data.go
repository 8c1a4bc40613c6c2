package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/shortssprint/shortssprint/internal/sheets"
)

// handleData returns the sheet rows the frontend renders. Rows marked
// re-edit are work in progress and excluded.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	records, err := s.Reader.Data(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	visible := make([]sheets.Record, 0, len(records))
	for _, rec := range records {
		if strings.EqualFold(rec["Edit"], "re-edit") {
			continue
		}
		visible = append(visible, rec)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"data":  visible,
		"count": len(visible),
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := s.Reader.Filters(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"filters": filters,
	})
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var fields sheets.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.badRequest(w, "request body must be a JSON object of column values")
		return
	}
	if len(fields) == 0 {
		s.badRequest(w, "no fields provided")
		return
	}

	if err := s.Writer.AppendRecord(r.Context(), fields); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "row added",
	})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.ParseInt(chi.URLParam(r, "row"), 10, 64)
	if err != nil || row < 0 {
		s.badRequest(w, "row must be a non-negative integer")
		return
	}

	var fields sheets.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.badRequest(w, "request body must be a JSON object of column values")
		return
	}
	if len(fields) == 0 {
		s.badRequest(w, "no fields provided")
		return
	}

	if err := s.Writer.UpdateRecord(r.Context(), row, fields); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("row %d updated", row),
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	row, err := strconv.ParseInt(chi.URLParam(r, "row"), 10, 64)
	if err != nil || row < 0 {
		s.badRequest(w, "row must be a non-negative integer")
		return
	}

	if err := s.Writer.DeleteRecord(r.Context(), row); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("row %d deleted", row),
	})
}

// handleTicket appends a support ticket. The body carries the ticket
// fields keyed exactly as the tickets tab names its columns.
func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body) == 0 {
		s.badRequest(w, "no ticket data provided")
		return
	}

	required := []string{"Ticket ID", "Vertical", "Exam Name", "Subject", "Issue Type", "Status", "Issue Text"}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(body[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		s.badRequest(w, fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
		return
	}

	ticket := sheets.Ticket{
		ID:        body["Ticket ID"],
		Vertical:  body["Vertical"],
		ExamName:  body["Exam Name"],
		Subject:   body["Subject"],
		IssueType: body["Issue Type"],
		Status:    body["Status"],
		IssueText: body["Issue Text"],
	}
	if err := s.Writer.AppendTicket(r.Context(), ticket); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"ticket_id": ticket.ID,
		"message":   "ticket created",
	})
}
