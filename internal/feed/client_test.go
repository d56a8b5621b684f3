package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"unishare-hub/internal/model"
)

func boolPtr(v bool) *bool {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func TestNormalize_AcceptsAllThreeShapes(t *testing.T) {
	t.Parallel()

	payloads := map[string]string{
		"wrapped announcements": `{"announcements":[{"id":"a1","title":"One"}]}`,
		"wrapped data":          `{"data":[{"id":"a1","title":"One"}]}`,
		"bare array":            `[{"id":"a1","title":"One"}]`,
	}

	for name, payload := range payloads {
		entries, err := normalize([]byte(payload))
		if err != nil {
			t.Fatalf("%s: normalize returned error: %v", name, err)
		}
		if len(entries) != 1 || entries[0].ID != "a1" {
			t.Fatalf("%s: unexpected entries: %+v", name, entries)
		}
	}
}

func TestNormalize_RejectsUnknownShape(t *testing.T) {
	t.Parallel()

	if _, err := normalize([]byte(`{"items":[{"id":"a1"}]}`)); err == nil {
		t.Fatal("expected error for unrecognized payload shape")
	}
}

func TestSelectLatest_FiltersAndRanks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	inactive := &model.Announcement{
		Title:     "Inactive",
		Active:    false,
		UpdatedAt: now,
	}
	expired := &model.Announcement{
		Title:     "Expired",
		Active:    true,
		ExpiresAt: timePtr(now.Add(-time.Hour)),
		UpdatedAt: now,
	}
	older := &model.Announcement{
		Title:     "Older",
		Active:    true,
		UpdatedAt: now.Add(-48 * time.Hour),
	}
	winner := &model.Announcement{
		Title:     "Winner",
		Active:    true,
		ExpiresAt: timePtr(now.Add(time.Hour)),
		UpdatedAt: now.Add(-time.Hour),
	}
	createdOnly := &model.Announcement{
		Title:     "CreatedOnly",
		Active:    true,
		CreatedAt: now.Add(-72 * time.Hour),
	}

	got := SelectLatest([]*model.Announcement{inactive, expired, older, winner, createdOnly}, now)
	if got == nil || got.Title != "Winner" {
		t.Fatalf("expected Winner, got %+v", got)
	}
}

func TestSelectLatest_FallsBackToCreatedAt(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	newerCreated := &model.Announcement{Title: "NewerCreated", Active: true, CreatedAt: now.Add(-time.Hour)}
	olderCreated := &model.Announcement{Title: "OlderCreated", Active: true, CreatedAt: now.Add(-2 * time.Hour)}

	got := SelectLatest([]*model.Announcement{olderCreated, newerCreated}, now)
	if got == nil || got.Title != "NewerCreated" {
		t.Fatalf("expected NewerCreated, got %+v", got)
	}
}

func TestSelectLatest_EmptyMeansNoCandidate(t *testing.T) {
	t.Parallel()

	if got := SelectLatest(nil, time.Now().UTC()); got != nil {
		t.Fatalf("expected no candidate, got %+v", got)
	}
}

func TestFetch_NormalizesEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"announcements":[
			{"id":"f1","title":"Feed One","body":"content","priority":"high","updatedAt":"2026-02-01T10:00:00Z"},
			{"id":"","title":"Missing id"},
			{"id":"f2","title":"Feed Two","active":false}
		]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	items, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected malformed entry skipped, got %d items", len(items))
	}
	if items[0].Priority != model.AnnouncementPriorityHigh {
		t.Fatalf("expected high priority, got %s", items[0].Priority)
	}
	if items[1].Active {
		t.Fatal("expected explicit active=false honored")
	}
}

func TestFetch_AbsentActiveFlagMeansActive(t *testing.T) {
	t.Parallel()

	entry := Entry{ID: "f1", Title: "Implicit"}
	item, err := entry.toModel()
	if err != nil {
		t.Fatalf("toModel returned error: %v", err)
	}
	if !item.Active {
		t.Fatal("expected entry without active flag to be active")
	}

	entry.Active = boolPtr(false)
	item, err = entry.toModel()
	if err != nil {
		t.Fatalf("toModel returned error: %v", err)
	}
	if item.Active {
		t.Fatal("expected explicit false to deactivate")
	}
}

func TestToModel_DerivesStableDistinctIDs(t *testing.T) {
	t.Parallel()

	first, err := Entry{ID: "f1", Title: "One"}.toModel()
	if err != nil {
		t.Fatalf("toModel returned error: %v", err)
	}
	renamed, err := Entry{ID: "f1", Title: "One, renamed"}.toModel()
	if err != nil {
		t.Fatalf("toModel returned error: %v", err)
	}
	other, err := Entry{ID: "f2", Title: "Two"}.toModel()
	if err != nil {
		t.Fatalf("toModel returned error: %v", err)
	}

	if first.ID == uuid.Nil {
		t.Fatal("expected a non-nil row id")
	}
	if first.ID != renamed.ID {
		t.Fatalf("same feed id must map to the same row id: %s vs %s", first.ID, renamed.ID)
	}
	if first.ID == other.ID {
		t.Fatalf("distinct feed ids must map to distinct row ids, both got %s", first.ID)
	}
}

func TestLatest_FetchFailureServesDefault(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	got, err := client.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.Title != DefaultTitle {
		t.Fatalf("expected default announcement, got %q", got.Title)
	}
	if got.ID != DefaultAnnouncementID {
		t.Fatalf("expected the fixed default id, got %s", got.ID)
	}
	if !got.Active {
		t.Fatal("expected default announcement active")
	}
}

func TestLatest_EmptyFeedReturnsSentinel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"announcements":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client(), nil)
	if _, err := client.Latest(context.Background()); err != ErrEmptyFeed {
		t.Fatalf("expected ErrEmptyFeed, got %v", err)
	}
}
