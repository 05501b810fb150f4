package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/michaelbrown/proctor/internal/config"
	"github.com/michaelbrown/proctor/internal/storage"
	"github.com/michaelbrown/proctor/internal/storage/sqlite"
)

func testServer(t *testing.T) (*Server, *sqlite.SQLiteStore) {
	t.Helper()

	store, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return New(&config.Config{}, store), store
}

func seedRecords(t *testing.T, store storage.Store) {
	t.Helper()
	ctx := context.Background()

	records := []*storage.Record{
		{ID: "rec-one", RollNumber: "a123456", Question: "1", Outcome: "completed", Marks: 5},
		{ID: "rec-two", RollNumber: "a123456", Question: "2", Outcome: "compile_error", Marks: 0},
		{ID: "rec-three", RollNumber: "b654321", Question: "1", Outcome: "completed", Marks: 4},
	}
	for _, rec := range records {
		if err := store.SaveRecord(ctx, rec); err != nil {
			t.Fatalf("SaveRecord: %v", err)
		}
	}
}

func TestListResults(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store)

	req := httptest.NewRequest("GET", "/api/results", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var records []storage.Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("got %d records, want 3", len(records))
	}
}

func TestListResultsRollFilter(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store)

	req := httptest.NewRequest("GET", "/api/results?roll=b654321", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var records []storage.Record
	if err := json.NewDecoder(w.Body).Decode(&records); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(records) != 1 || records[0].RollNumber != "b654321" {
		t.Errorf("records = %+v, want only b654321", records)
	}
}

func TestGetResultByPrefix(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store)

	req := httptest.NewRequest("GET", "/api/results/rec-one", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var rec storage.Record
	if err := json.NewDecoder(w.Body).Decode(&rec); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if rec.ID != "rec-one" {
		t.Errorf("id = %q, want rec-one", rec.ID)
	}
}

func TestGetResultNotFound(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/results/nope", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStudentReport(t *testing.T) {
	s, store := testServer(t)
	seedRecords(t, store)

	req := httptest.NewRequest("GET", "/api/students/a123456", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var report struct {
		RollNumber string           `json:"roll_number"`
		TotalMarks float64          `json:"total_marks"`
		Records    []storage.Record `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if report.TotalMarks != 5 {
		t.Errorf("total marks = %v, want 5", report.TotalMarks)
	}
	if len(report.Records) != 2 {
		t.Errorf("got %d records, want 2", len(report.Records))
	}
}

func TestStudentReportNotFound(t *testing.T) {
	s, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/students/z000000", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
