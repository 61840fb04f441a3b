package eventstore

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/signbridge/signbridge-core/internal/config"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openStore(t *testing.T, cfg config.EventStoreConfig) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "events.db")
	}
	es, err := Open(context.Background(), cfg, newLogger())
	if err != nil {
		t.Fatalf("open event store: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })
	return es
}

func TestOpenEphemeral(t *testing.T) {
	ctx := context.Background()
	cfg := config.EventStoreConfig{RetentionMode: "ephemeral"}
	es, err := Open(ctx, cfg, newLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = es.Close() })
	if es.db != nil {
		t.Fatal("ephemeral store should not open a database")
	}
	if err := es.AppendEvent(ctx, Event{SessionID: "s", Type: "translation"}); err != nil {
		t.Fatalf("ephemeral append should be a no-op: %v", err)
	}
	events, err := es.ListSessionEvents(ctx, "s", 10)
	if err != nil || events != nil {
		t.Fatalf("ephemeral store should list nothing, got %v (%v)", events, err)
	}
}

func TestAppendAndQuery(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "session"})
	ctx := context.Background()

	sessionID := "session-123"
	if err := es.OpenSession(ctx, sessionID, "conn-1", time.Time{}); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := es.AppendEvent(ctx, Event{SessionID: sessionID, Type: "translation", Modality: "sign", Payload: []byte("hello")}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	if err := es.AppendEvent(ctx, Event{SessionID: sessionID, Type: "translation", Modality: "voice", Payload: []byte("thank you")}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	events, err := es.ListSessionEvents(ctx, sessionID, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if string(events[0].Payload) != "hello" || events[0].Modality != "sign" || events[1].Modality != "voice" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestSessionLifecycle(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "session"})
	ctx := context.Background()
	opened := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	closed := opened.Add(5 * time.Minute)

	if err := es.OpenSession(ctx, "s1", "c1", opened); err != nil {
		t.Fatal(err)
	}
	sess, ok, err := es.GetSession(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("session not found: %v", err)
	}
	if !sess.ClosedAt.IsZero() || !sess.OpenedAt.Equal(opened) || sess.ConnectionID != "c1" {
		t.Fatalf("unexpected open session %+v", sess)
	}

	if err := es.CloseSession(ctx, "s1", "c1", closed); err != nil {
		t.Fatal(err)
	}
	sess, _, _ = es.GetSession(ctx, "s1")
	if !sess.ClosedAt.Equal(closed) || !sess.OpenedAt.Equal(opened) {
		t.Fatalf("close must only stamp closed_at: %+v", sess)
	}

	if _, ok, _ := es.GetSession(ctx, "missing"); ok {
		t.Fatal("unexpected session")
	}
}

func TestOutOfOrderRecords(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "session"})
	ctx := context.Background()
	opened := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := es.AppendEvent(ctx, Event{SessionID: "s", Type: "translation", CreatedAt: opened.Add(time.Second)}); err != nil {
		t.Fatal(err)
	}
	if err := es.CloseSession(ctx, "s", "c", opened.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := es.OpenSession(ctx, "s", "c", opened); err != nil {
		t.Fatal(err)
	}
	sess, _, _ := es.GetSession(ctx, "s")
	if !sess.OpenedAt.Equal(opened) || !sess.ClosedAt.Equal(opened.Add(time.Minute)) {
		t.Fatalf("late open must not lose the close time: %+v", sess)
	}
}

func TestAppendEventCreatesMissingSession(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "session"})
	ctx := context.Background()
	if err := es.AppendEvent(ctx, Event{SessionID: "late", Type: "translation"}); err != nil {
		t.Fatalf("append for unknown session: %v", err)
	}
	if _, ok, _ := es.GetSession(ctx, "late"); !ok {
		t.Fatal("session row not created")
	}
	if err := es.AppendEvent(ctx, Event{Type: "translation"}); err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestPruneByDaysAndSessions(t *testing.T) {
	es := openStore(t, config.EventStoreConfig{RetentionMode: "persistent", RetentionDays: 1, MaxSessions: 1})
	ctx := context.Background()

	es.clock = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	if err := es.OpenSession(ctx, "old-session", "conn", time.Time{}); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := es.AppendEvent(ctx, Event{SessionID: "old-session", Type: "note"}); err != nil {
		t.Fatalf("append event: %v", err)
	}

	es.clock = func() time.Time { return time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC) }
	if err := es.OpenSession(ctx, "new-session", "conn", time.Time{}); err != nil {
		t.Fatalf("open session: %v", err)
	}
	if err := es.Prune(ctx); err != nil {
		t.Fatalf("prune: %v", err)
	}

	events, err := es.ListSessionEvents(ctx, "old-session", 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected old session pruned")
	}
	if _, ok, _ := es.GetSession(ctx, "new-session"); !ok {
		t.Fatal("new session should survive")
	}
}
