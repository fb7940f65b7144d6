package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coldchain_logger/internal/models"
	"coldchain_logger/internal/service"
)

func getWithToken(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}

func TestEventsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.Event{
		{EventID: "e1", OccurredAt: now, Name: "Alerts", Payload: "Temperature above 30.0"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Name: "Alerts", Payload: "All within thresholds"},
	}
	logs := &mockEventLog{resp: events}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, EventLog: logs})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, getWithToken("/api/v1/events?from=notatime"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, getWithToken("/api/v1/events?from=2025-08-02&to=2025-08-01"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, getWithToken("/api/v1/events?from=2025-08-01&to=2025-08-01&name=%20Alerts%20"))
	if w.Code != http.StatusOK {
		t.Fatalf("events status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int            `json:"count"`
		Events []models.Event `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 || out.Events[0].Payload != "Temperature above 30.0" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastName != "Alerts" {
		t.Fatalf("name filter = %q, want Alerts", logs.lastName)
	}
	wantTo := time.Date(2025, 8, 1, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastTo.Equal(wantTo) {
		t.Fatalf("date-only 'to' = %s, want end of day", logs.lastTo)
	}

	logs.err = errors.New("db down")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, getWithToken("/api/v1/events"))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on repository failure, got %d", w.Code)
	}
}

func TestParseQueryTime(t *testing.T) {
	for _, s := range []string{"2025-08-27T15:04:05Z", "2025-08-27 15:04:05", "2025-08-27"} {
		if _, err := parseQueryTime(s); err != nil {
			t.Fatalf("parseQueryTime(%q) error = %v", s, err)
		}
	}
	if _, err := parseQueryTime("27/08/2025"); err == nil {
		t.Fatalf("expected error for unsupported layout")
	}
}
