package round

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type answer struct {
	label  string
	points int
}

type answerRecorder struct {
	mu    sync.Mutex
	calls []answer
	ch    chan answer
}

func newAnswerRecorder() *answerRecorder {
	return &answerRecorder{ch: make(chan answer, 4)}
}

func (r *answerRecorder) onAnswer(label string, points int) {
	r.mu.Lock()
	r.calls = append(r.calls, answer{label: label, points: points})
	r.mu.Unlock()
	r.ch <- answer{label: label, points: points}
}

func (r *answerRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *answerRecorder) wait(t *testing.T) answer {
	t.Helper()
	select {
	case a := <-r.ch:
		return a
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for answer")
		return answer{}
	}
}

func testOptions(rec *answerRecorder) (fakeClock, Options) {
	fc := clockwork.NewFakeClock()
	return fc, Options{Clock: fc, Rand: rand.New(rand.NewSource(7)), OnAnswer: rec.onAnswer}
}

// eventually polls cond until it holds; ticks and delays are delivered on other goroutines.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// settle gives stray goroutines a chance to run before asserting nothing happened.
func settle() {
	time.Sleep(20 * time.Millisecond)
}

// advanceUntil steps the fake clock until done reports true. Fake tickers drop ticks
// that arrive while the round is busy, so a single large Advance is not enough.
func advanceUntil(t *testing.T, fc fakeClock, step time.Duration, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatalf("clock advanced without reaching the expected state")
		}
		fc.Advance(step)
		time.Sleep(time.Millisecond)
	}
}
