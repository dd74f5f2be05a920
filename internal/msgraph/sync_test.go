package msgraph_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tiliavir/pioneer-tracker/internal/model"
	"github.com/Tiliavir/pioneer-tracker/internal/msgraph"
	"github.com/Tiliavir/pioneer-tracker/internal/storage"
)

func makeEvent(id, subject, start, end string) msgraph.CalendarEvent {
	return msgraph.CalendarEvent{
		ID:          id,
		Subject:     subject,
		Sensitivity: "normal",
		ShowAs:      "busy",
		Start:       msgraph.EventTime{DateTime: start, TimeZone: "UTC"},
		End:         msgraph.EventTime{DateTime: end, TimeZone: "UTC"},
	}
}

// newStore returns a store persisted to a temp directory.
func newStore(t *testing.T) (*storage.Store, storage.KV) {
	t.Helper()
	kv, err := storage.OpenDisk(t.TempDir())
	if err != nil {
		t.Fatalf("OpenDisk: %v", err)
	}
	return storage.New(kv), kv
}

func reload(t *testing.T, kv storage.KV) []model.Entry {
	t.Helper()
	s := storage.New(kv)
	if _, err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s.Entries()
}

func TestMapEventToEntry(t *testing.T) {
	event := makeEvent("ext-id-1", "Bible study with Ana", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	entry, start, err := msgraph.MapEventToEntry(event, "UTC", "Bible Study")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.ExternalID != "ext-id-1" {
		t.Errorf("ExternalID = %q, want %q", entry.ExternalID, "ext-id-1")
	}
	if entry.Notes != "Bible study with Ana" {
		t.Errorf("Notes = %q", entry.Notes)
	}
	if entry.Tag != "Bible Study" {
		t.Errorf("Tag = %q", entry.Tag)
	}
	if entry.Hours != 1.5 {
		t.Errorf("Hours = %v, want 1.5", entry.Hours)
	}
	if entry.Date != "2026-02-27" {
		t.Errorf("Date = %q", entry.Date)
	}
	if !start.Equal(time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
}

func TestMapEventToEntry_WithLocation(t *testing.T) {
	event := makeEvent("ext-id-2", "Cart witnessing", "2026-02-27T10:00:00", "2026-02-27T10:15:00")
	event.Location.DisplayName = "Central Station"

	entry, _, err := msgraph.MapEventToEntry(event, "UTC", "Public Witnessing")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Notes != "Cart witnessing @ Central Station" {
		t.Errorf("Notes = %q", entry.Notes)
	}
	if entry.Hours != 0.25 {
		t.Errorf("Hours = %v, want 0.25", entry.Hours)
	}
}

func TestMapEventToEntry_Timezone(t *testing.T) {
	// 23:30 in São Paulo: the Graph time carries no zone when the Prefer header is set.
	event := makeEvent("tz", "Late call", "2026-02-27T23:30:00.0000000", "2026-02-28T00:30:00.0000000")
	entry, _, err := msgraph.MapEventToEntry(event, "America/Sao_Paulo", "")
	if err != nil {
		t.Fatalf("MapEventToEntry: %v", err)
	}
	if entry.Date != "2026-02-27" || entry.Hours != 1 {
		t.Errorf("entry = %+v, want 1h on 2026-02-27", entry)
	}
}

func TestMapEventToEntry_Invalid(t *testing.T) {
	for _, ev := range []msgraph.CalendarEvent{
		makeEvent("a", "bad", "yesterday", "2026-02-27T10:00:00"),
		makeEvent("b", "backwards", "2026-02-27T10:00:00", "2026-02-27T09:00:00"),
	} {
		if _, _, err := msgraph.MapEventToEntry(ev, "UTC", "x"); err == nil {
			t.Errorf("MapEventToEntry(%s) expected error", ev.ID)
		}
	}
}

func TestSyncEvents_Import(t *testing.T) {
	store, kv := newStore(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Return visit", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}
	var out bytes.Buffer
	result, err := msgraph.SyncEvents(events, store, msgraph.SyncOptions{Tag: "Return Visits", Timezone: "UTC", Out: &out})
	if err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 1 imported", result)
	}
	if !strings.Contains(out.String(), "Imported: Return visit (1:30)") {
		t.Errorf("progress = %q", out.String())
	}

	entries := reload(t, kv)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ExternalID != "ext-1" || entries[0].Tag != "Return Visits" {
		t.Errorf("entry = %+v", entries[0])
	}
}

func TestSyncEvents_Idempotent(t *testing.T) {
	store, kv := newStore(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Return visit", "2026-02-27T09:00:00", "2026-02-27T10:30:00"),
	}
	opts := msgraph.SyncOptions{Tag: "Return Visits", Timezone: "UTC"}

	r1, err := msgraph.SyncEvents(events, store, opts)
	if err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}
	if r1.Imported != 1 {
		t.Errorf("first sync: Imported = %d, want 1", r1.Imported)
	}

	r2, err := msgraph.SyncEvents(events, store, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Imported != 0 || r2.Skipped != 1 {
		t.Errorf("second sync = %+v, want 0 imported 1 skipped", r2)
	}
	if n := len(reload(t, kv)); n != 1 {
		t.Fatalf("entries = %d after 2 syncs, want 1", n)
	}
}

func TestSyncEvents_Update(t *testing.T) {
	store, kv := newStore(t)
	event := makeEvent("ext-1", "Return visit", "2026-02-27T09:00:00", "2026-02-27T10:30:00")
	opts := msgraph.SyncOptions{Tag: "Return Visits", Timezone: "UTC"}

	if _, err := msgraph.SyncEvents([]msgraph.CalendarEvent{event}, store, opts); err != nil {
		t.Fatalf("first SyncEvents: %v", err)
	}
	id := store.Entries()[0].ID

	event.Subject = "Return visit (moved)"
	event.End.DateTime = "2026-02-27T11:00:00"

	r2, err := msgraph.SyncEvents([]msgraph.CalendarEvent{event}, store, opts)
	if err != nil {
		t.Fatalf("second SyncEvents: %v", err)
	}
	if r2.Updated != 1 {
		t.Errorf("Updated = %d, want 1", r2.Updated)
	}

	entries := reload(t, kv)
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].ID != id || entries[0].Notes != "Return visit (moved)" || entries[0].Hours != 2 {
		t.Errorf("entry = %+v, want updated in place", entries[0])
	}
}

func TestSyncEvents_SkipFiltered(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*msgraph.CalendarEvent)
	}{
		{"cancelled", func(e *msgraph.CalendarEvent) { e.IsCancelled = true }},
		{"all-day", func(e *msgraph.CalendarEvent) { e.IsAllDay = true }},
		{"private", func(e *msgraph.CalendarEvent) { e.Sensitivity = "private" }},
		{"free", func(e *msgraph.CalendarEvent) { e.ShowAs = "free" }},
		{"no end", func(e *msgraph.CalendarEvent) { e.End.DateTime = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newStore(t)
			e := makeEvent("c1", tt.name, "2026-02-27T09:00:00", "2026-02-27T10:00:00")
			tt.mutate(&e)
			r, err := msgraph.SyncEvents([]msgraph.CalendarEvent{e}, store, msgraph.SyncOptions{Tag: "x"})
			if err != nil {
				t.Fatalf("SyncEvents: %v", err)
			}
			if r.Imported != 0 || len(store.Entries()) != 0 {
				t.Errorf("expected nothing imported for %s event, got %+v", tt.name, r)
			}
		})
	}
}

func TestSyncEvents_DryRun(t *testing.T) {
	store, kv := newStore(t)
	events := []msgraph.CalendarEvent{
		makeEvent("ext-dry", "Dry run", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	result, err := msgraph.SyncEvents(events, store, msgraph.SyncOptions{Tag: "x", DryRun: true})
	if err != nil {
		t.Fatalf("SyncEvents dry-run: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("dry-run Imported = %d, want 1", result.Imported)
	}
	if len(store.Entries()) != 0 {
		t.Errorf("dry-run changed memory: %d entries", len(store.Entries()))
	}
	if n := len(reload(t, kv)); n != 0 {
		t.Errorf("dry-run wrote %d entries, want 0", n)
	}
}

func TestSyncEvents_DryRunRepeatedEvent(t *testing.T) {
	events := []msgraph.CalendarEvent{
		makeEvent("ext-rep", "Repeated", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
		makeEvent("ext-rep", "Repeated", "2026-02-27T09:00:00", "2026-02-27T10:00:00"),
	}
	want := msgraph.SyncResult{Imported: 1, Skipped: 1}
	for _, dry := range []bool{true, false} {
		store, _ := newStore(t)
		result, err := msgraph.SyncEvents(events, store, msgraph.SyncOptions{Tag: "x", DryRun: dry})
		if err != nil {
			t.Fatalf("SyncEvents(dryRun=%v): %v", dry, err)
		}
		if result != want {
			t.Errorf("SyncEvents(dryRun=%v) = %+v, want %+v", dry, result, want)
		}
	}
}

func TestSyncEvents_ExternalIDPreservesManualEntries(t *testing.T) {
	store, kv := newStore(t)
	manual := model.Entry{ID: 1, Date: "2026-02-27", Hours: 1, Tag: "House to House", Notes: "manual"}
	if _, err := store.PutEntry(manual); err != nil {
		t.Fatalf("inserting manual entry: %v", err)
	}

	events := []msgraph.CalendarEvent{
		makeEvent("ext-1", "Meeting", "2026-02-27T11:00:00", "2026-02-27T12:00:00"),
	}
	if _, err := msgraph.SyncEvents(events, store, msgraph.SyncOptions{Tag: "Meetings"}); err != nil {
		t.Fatalf("SyncEvents: %v", err)
	}

	entries := reload(t, kv)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (manual + imported)", len(entries))
	}
	var found bool
	for _, e := range entries {
		if e.ID == 1 {
			found = true
			if e != manual {
				t.Errorf("manual entry changed to %+v", e)
			}
		}
	}
	if !found {
		t.Error("manual entry not found after sync")
	}
}

func TestGetCalendarViewPaging(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Prefer"); got != `outlook.timezone="UTC"` {
			t.Errorf("Prefer header = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, `{"value":[{"id":"b","subject":"second"}]}`)
			return
		}
		fmt.Fprintf(w, `{"value":[{"id":"a","subject":"first"}],"@odata.nextLink":"%s/me/calendarView?page=2"}`, srv.URL)
	}))
	defer srv.Close()

	c := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	events, err := c.GetCalendarView(context.Background(), from, from.AddDate(0, 1, 0), "UTC")
	if err != nil {
		t.Fatalf("GetCalendarView: %v", err)
	}
	if len(events) != 2 || events[0].ID != "a" || events[1].ID != "b" {
		t.Errorf("events = %+v", events)
	}
}

func TestGetCalendarViewError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer srv.Close()

	c := msgraph.NewClientWithHTTP(srv.Client(), srv.URL)
	_, err := c.GetCalendarView(context.Background(), time.Now(), time.Now(), "")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v, want graph API error 403", err)
	}
}
