package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/michaelbrown/proctor/internal/storage"
)

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- Result handlers ---

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	opts := storage.ListOptions{}

	if roll := r.URL.Query().Get("roll"); roll != "" {
		opts.RollNumber = roll
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil {
			opts.Offset = n
		}
	}

	records, err := s.store.ListRecords(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if records == nil {
		records = []storage.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := s.store.GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleStudentReport returns all of a student's records plus the mark
// total, mirroring the markdown export.
func (s *Server) handleStudentReport(w http.ResponseWriter, r *http.Request) {
	roll := chi.URLParam(r, "roll")

	records, err := s.store.ListRecords(r.Context(), storage.ListOptions{RollNumber: roll})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no records for "+roll)
		return
	}

	var total float64
	for _, rec := range records {
		total += rec.Marks
	}

	writeJSON(w, http.StatusOK, struct {
		RollNumber string           `json:"roll_number"`
		TotalMarks float64          `json:"total_marks"`
		Records    []storage.Record `json:"records"`
	}{roll, total, records})
}
