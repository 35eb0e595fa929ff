package memory

import (
	"context"
	"testing"

	"bondquest-rounds/internal/domain"
)

func TestResultLogKeepsNewest(t *testing.T) {
	log := NewResultLog(2)
	ctx := context.Background()
	for i, user := range []string{"u1", "u2", "u1"} {
		if err := log.Record(ctx, domain.Outcome{RoundID: string(rune('a' + i)), UserID: user, Points: i}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	got := log.ForUser("u1")
	if len(got) != 1 || got[0].RoundID != "c" {
		t.Fatalf("expected only the newest u1 outcome, got %+v", got)
	}
	if len(log.ForUser("u2")) != 1 {
		t.Fatalf("expected u2 outcome retained")
	}
}
