package extraction_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gigtally/tally_backend/extraction"
	"github.com/gigtally/tally_backend/models"
	"github.com/gigtally/tally_backend/utils"
)

func TestExtractParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/extract" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"entries":[
			{"id":"e1","projectNameRaw":"helio","taskDescription":"logo revisions","date":"2026-08-20","durationMinutes":90,"category":"revision","intent":"done","sourceText":"90min logo revisions for helio"},
			{"projectNameRaw":"","taskDescription":"emails","date":"maybe tuesday","category":"email","intent":"","issues":["DATE_AMBIGUOUS"]}
		]}`))
	}))
	defer srv.Close()

	client := extraction.NewClientWithBase(srv.URL)
	raw, err := client.Extract(context.Background(), "90min logo revisions for helio, then emails")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(raw) != 2 {
		t.Fatalf("got %d candidates, want 2", len(raw))
	}
	if raw[0].Id != "e1" || raw[0].DurationMinutes == nil || *raw[0].DurationMinutes != 90 {
		t.Errorf("first candidate = %+v", raw[0])
	}
	if raw[1].Id == "" {
		t.Error("candidate without upstream id did not get one assigned")
	}
}

func TestExtractRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := extraction.NewClientWithBase(srv.URL)
	_, err := client.Extract(context.Background(), "some text")
	if err != utils.ErrorRateLimited {
		t.Fatalf("got %v, want ErrorRateLimited", err)
	}
}

func TestExtractRejectsEmptyText(t *testing.T) {
	client := extraction.NewClientWithBase("http://localhost:1")
	if _, err := client.Extract(context.Background(), "   "); err == nil {
		t.Fatal("empty text accepted")
	}
}

func TestToCandidatesNormalizes(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	bad := 5000
	good := 45
	raw := []extraction.RawCandidate{
		{Id: "a", ProjectNameRaw: "helio", Date: "2026-08-20", DurationMinutes: &good, Category: "revision", Intent: "done"},
		{Id: "b", ProjectNameRaw: "helio", Date: "next week", DurationMinutes: &bad, Category: "sorcery", Intent: "someday", Issues: []string{"DURATION_AMBIGUOUS", "NOT_A_CODE"}},
	}

	out := extraction.ToCandidates(raw, now)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}

	if out[0].Category != models.EntryCategoryRevision || out[0].Intent != models.EntryIntentDone {
		t.Errorf("clean candidate mangled: %+v", out[0])
	}
	if out[0].DurationMinutes == nil || *out[0].DurationMinutes != 45 {
		t.Errorf("clean duration mangled: %+v", out[0].DurationMinutes)
	}

	b := out[1]
	if b.Category != models.EntryCategoryOther || !b.Issues.Contains(models.IssueCategoryAmbiguous) {
		t.Errorf("unknown category not downgraded: %+v", b)
	}
	if b.Intent != models.EntryIntentDone {
		t.Errorf("unknown intent should default to done: %+v", b.Intent)
	}
	if b.Date != "2026-08-28" || !b.Issues.Contains(models.IssueDateAmbiguous) {
		t.Errorf("unparseable date not defaulted: %q %v", b.Date, b.Issues)
	}
	if b.DurationMinutes != nil {
		t.Errorf("out-of-range duration kept: %v", *b.DurationMinutes)
	}
	if !b.Issues.Contains(models.IssueDurationAmbiguous) {
		t.Error("known warning code dropped")
	}
	for _, code := range b.Issues {
		if code == "NOT_A_CODE" {
			t.Error("unknown issue code accepted")
		}
	}
}
