package journal

import (
	"context"
	"testing"
	"time"

	"github.com/vinerima/yaws/internal/config"
)

func testConfig() config.JournalConfig {
	return config.JournalConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
		BufferSize:    100,
	}
}

func TestJournal_Transform(t *testing.T) {
	j := New(testConfig(), nil, nil)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Entry{
		Instance: "yaws-1",
		Address:  "wss://example.com/stream",
		Event:    EventOpen,
		Detail:   "",
		At:       at,
	}

	r := j.transform(e)

	if r.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("expected a generated row ID")
	}
	if r.Instance != "yaws-1" {
		t.Errorf("Instance = %q, want yaws-1", r.Instance)
	}
	if r.Event != EventOpen {
		t.Errorf("Event = %q, want %q", r.Event, EventOpen)
	}
	if r.At != at {
		t.Errorf("At = %v, want %v", r.At, at)
	}
}

func TestJournal_RecordStampsTime(t *testing.T) {
	j := New(testConfig(), nil, nil)

	before := time.Now()
	j.Record(Entry{Instance: "yaws-1", Event: EventConnecting})

	e := <-j.input
	if e.At.Before(before) {
		t.Errorf("At = %v, should be stamped at or after %v", e.At, before)
	}
}

func TestJournal_RecordDropsWhenFull(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSize = 1
	j := New(cfg, nil, nil)

	j.Record(Entry{Event: EventOpen})
	j.Record(Entry{Event: EventClosed}) // buffer full, dropped

	if got := j.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestJournal_Lifecycle(t *testing.T) {
	// Note: We can't test actual DB writes without a database.
	// This tests the goroutine lifecycle; the batch stays empty so
	// flush never touches the pool.
	j := New(testConfig(), nil, nil)

	ctx := context.Background()
	if err := j.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := j.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
