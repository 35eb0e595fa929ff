package round

import (
	"slices"
	"time"

	"bondquest-rounds/internal/domain"
)

// speedRevealDelay holds the chosen answer on screen before the result is delivered.
const speedRevealDelay = 600 * time.Millisecond

// SpeedRound is a single-choice question scored by how quickly it is answered.
type SpeedRound struct {
	core
	question domain.Question
	selected string
	answered bool
}

var _ Round = (*SpeedRound)(nil)

// NewSpeedRound starts a speed round counting down from timeLimit in tenths of a second.
func NewSpeedRound(q domain.Question, timeLimit time.Duration, opts Options) *SpeedRound {
	opts = opts.withDefaults()
	r := &SpeedRound{question: q}
	r.init(opts, timeLimit, speedInterval, speedStep, func() (string, int) { return "", 0 })
	r.start()
	return r
}

func (r *SpeedRound) Kind() domain.RoundKind { return domain.KindSpeed }

// Select answers the question. Only the first valid selection counts; the result is
// delivered after a short reveal delay that further input cannot cancel.
func (r *SpeedRound) Select(option string) bool {
	r.mu.Lock()
	if r.answered || !slices.Contains(r.question.Options, option) {
		r.mu.Unlock()
		return false
	}
	ok, after := r.activeLocked()
	if !ok {
		r.unlock(after)
		return false
	}
	r.selected = option
	r.answered = true
	r.finishLocked(Result{Label: option, Points: SpeedScore(r.cd.left)}, speedRevealDelay)
	r.mu.Unlock()
	return true
}

func (r *SpeedRound) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.baseSnapshotLocked(domain.KindSpeed, r.question.Text)
	s.Options = slices.Clone(r.question.Options)
	s.Selected = r.selected
	return s
}
