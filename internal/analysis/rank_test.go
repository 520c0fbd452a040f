package analysis

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/runebook/ambient/internal/types"
)

func ranked(title string, priority types.Priority, confidence float64, createdAt time.Time) *types.Suggestion {
	return &types.Suggestion{
		ID:         uuid.New().String(),
		Title:      title,
		Confidence: confidence,
		Type:       types.SuggestionTip,
		Priority:   priority,
		Source:     "heuristic",
		CreatedAt:  createdAt,
	}
}

func TestDedupe(t *testing.T) {
	now := time.Now().UTC()

	t.Run("identical titles keep higher priority", func(t *testing.T) {
		got := dedupe([]*types.Suggestion{
			ranked("same", types.PriorityLow, 0.9, now),
			ranked("same", types.PriorityHigh, 0.4, now),
			ranked("other", types.PriorityMedium, 0.5, now),
		})
		if len(got) != 2 {
			t.Fatalf("expected 2 survivors, got %d", len(got))
		}
		if got[0].Title != "same" || got[0].Priority != types.PriorityHigh {
			t.Errorf("expected high priority survivor first, got %+v", got[0])
		}
	})

	t.Run("equal priority keeps higher confidence", func(t *testing.T) {
		got := dedupe([]*types.Suggestion{
			ranked("same", types.PriorityMedium, 0.5, now),
			ranked("same", types.PriorityMedium, 0.8, now),
		})
		if len(got) != 1 || got[0].Confidence != 0.8 {
			t.Errorf("expected the 0.8 survivor, got %+v", got)
		}
	})

	t.Run("different titles untouched", func(t *testing.T) {
		got := dedupe([]*types.Suggestion{
			ranked("a", types.PriorityLow, 0.5, now),
			ranked("b", types.PriorityLow, 0.5, now),
		})
		if len(got) != 2 {
			t.Errorf("expected 2, got %d", len(got))
		}
	})
}

func TestRank(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Minute)

	input := []*types.Suggestion{
		ranked("low", types.PriorityLow, 0.9, now),
		ranked("high-old", types.PriorityHigh, 0.5, earlier),
		ranked("high-new", types.PriorityHigh, 0.5, now),
		ranked("high-confident", types.PriorityHigh, 0.9, earlier),
		ranked("medium", types.PriorityMedium, 0.9, now),
	}

	got := rank(input)

	wantOrder := []string{"high-confident", "high-new", "high-old", "medium", "low"}
	for i, want := range wantOrder {
		if got[i].Title != want {
			t.Errorf("position %d: got %s, want %s", i, got[i].Title, want)
		}
	}

	t.Run("deterministic on full ties", func(t *testing.T) {
		a := ranked("tie-a", types.PriorityLow, 0.5, now)
		b := ranked("tie-b", types.PriorityLow, 0.5, now)
		first := rank([]*types.Suggestion{a, b})
		second := rank([]*types.Suggestion{a, b})
		if first[0].Title != second[0].Title || first[0].Title != "tie-a" {
			t.Error("full ties must keep insertion order")
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		if input[0].Title != "low" {
			t.Error("rank must not reorder its input slice")
		}
	})
}
