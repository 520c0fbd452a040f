package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/runebook/ambient/internal/analysis"
	"github.com/runebook/ambient/internal/events"
	"github.com/runebook/ambient/internal/storage"
	"github.com/runebook/ambient/internal/types"
)

// blockingRule holds every Detect call until released, so a test can
// keep an analysis in flight while the capture stream continues.
type blockingRule struct {
	release chan struct{}
}

func (r *blockingRule) Name() string { return "blocking" }

func (r *blockingRule) Detect(summary types.ErrorSummary) []*types.Suggestion {
	<-r.release
	return nil
}

// eventLine unwraps a constructor result and renders the event as one
// capture-stream line. Fixture construction only fails on test bugs.
func eventLine(event *events.TerminalEvent, err error) string {
	if err != nil {
		panic(err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func TestObserveDoesNotBlockOnSessionEnd(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewStorage(ctx, &storage.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	defer store.Close()

	rule := &blockingRule{release: make(chan struct{})}
	analyzer, err := analysis.New(analysis.Config{
		Store:      store,
		Heuristics: []analysis.Heuristic{rule},
	})
	if err != nil {
		t.Fatalf("failed to build analyzer: %v", err)
	}

	start, err := events.NewCommandStartEvent("sess-1", "zsh", events.CommandStartData{
		Command: "false",
		Cwd:     "/tmp",
	})
	if err != nil {
		t.Fatalf("failed to build start event: %v", err)
	}

	// A failure whose analysis will block, the session teardown, and an
	// event from the next session behind it.
	lines := []string{
		eventLine(start, nil),
		eventLine(events.NewExitStatusEvent("sess-1", "zsh", start.CommandID, events.ExitStatusData{ExitCode: 1})),
		eventLine(events.NewSessionEndEvent("sess-1", "zsh", events.SessionEndData{DurationMs: 100})),
		eventLine(events.NewCommandStartEvent("sess-2", "zsh", events.CommandStartData{Command: "pwd", Cwd: "/tmp"})),
	}
	input := strings.Join(lines, "\n") + "\n"

	done := make(chan error, 1)
	go func() {
		done <- observe(ctx, strings.NewReader(input), store, analyzer)
	}()

	// The whole stream, including the event after session_end, must be
	// persisted while the analysis is still blocked.
	deadline := time.Now().Add(2 * time.Second)
	for {
		stored, err := store.GetEventsBySession(ctx, "sess-2", 0)
		if err != nil {
			t.Fatalf("GetEventsBySession failed: %v", err)
		}
		if len(stored) > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("capture stalled behind an in-flight analysis")
		}
		select {
		case err := <-done:
			t.Fatalf("observe returned with an analysis still in flight: %v", err)
		default:
		}
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case err := <-done:
		t.Fatalf("observe returned with an analysis still in flight: %v", err)
	default:
	}

	close(rule.release)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("observe failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observe did not return after in-flight analyses drained")
	}
}
