package memory

import (
	"context"
	"sync"

	"bondquest-rounds/internal/domain"
)

// ResultLog keeps finished rounds in memory, newest last. It stands in for the
// score backend when no database is configured.
type ResultLog struct {
	mu       sync.RWMutex
	outcomes []domain.Outcome
	limit    int
}

// NewResultLog keeps at most limit outcomes; zero keeps everything.
func NewResultLog(limit int) *ResultLog {
	return &ResultLog{limit: limit}
}

func (l *ResultLog) Record(_ context.Context, outcome domain.Outcome) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.outcomes = append(l.outcomes, outcome)
	if l.limit > 0 && len(l.outcomes) > l.limit {
		l.outcomes = l.outcomes[len(l.outcomes)-l.limit:]
	}
	return nil
}

// ForUser returns the recorded outcomes of one player, oldest first.
func (l *ResultLog) ForUser(userID string) []domain.Outcome {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domain.Outcome
	for _, o := range l.outcomes {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}
