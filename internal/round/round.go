// Package round implements the timed mini-games: speed select, memory match and
// drag-to-position placement. Each round owns a countdown, accepts player
// interactions and delivers exactly one scored result.
package round

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"bondquest-rounds/internal/domain"
	"github.com/jonboulle/clockwork"
)

// ErrClosed is returned by Wait when a round was disposed before its result was delivered.
var ErrClosed = errors.New("round closed before delivering a result")

// AnswerFunc receives a round's result. It is invoked at most once per round.
type AnswerFunc func(label string, points int)

// Options carries the collaborators shared by all round types.
type Options struct {
	// Clock drives ticks and presentation delays. Defaults to the real clock.
	Clock clockwork.Clock
	// Rand shuffles decks and items. Defaults to a time-seeded source.
	Rand *rand.Rand
	// OnAnswer is called once with the final label and points.
	OnAnswer AnswerFunc
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return o
}

// Result is what a round delivers when it finishes.
type Result struct {
	Label    string `json:"label"`
	Points   int    `json:"points"`
	TimedOut bool   `json:"timedOut"`
}

// Snapshot is a point-in-time view of a round, safe to hand to clients.
// Face-down memory cards have their content blanked.
type Snapshot struct {
	Kind      domain.RoundKind `json:"kind"`
	Question  string           `json:"question"`
	TimeLimit float64          `json:"timeLimit"`
	TimeLeft  float64          `json:"timeLeft"`
	Complete  bool             `json:"complete"`

	Options  []string `json:"options,omitempty"`
	Selected string   `json:"selected,omitempty"`

	Cards        []domain.Card `json:"cards,omitempty"`
	Moves        int           `json:"moves"`
	MatchedPairs int           `json:"matchedPairs"`
	TotalPairs   int           `json:"totalPairs"`

	Items    []domain.Item `json:"items,omitempty"`
	Zones    []domain.Zone `json:"zones,omitempty"`
	Dragging string        `json:"dragging,omitempty"`
}

// Round is the behavior common to every mini-game.
type Round interface {
	Kind() domain.RoundKind
	Snapshot() Snapshot
	// Skip ends the round early. It reports whether the round was still running.
	Skip() bool
	// Wait blocks until the result is delivered, the round is closed, or ctx ends.
	Wait(ctx context.Context) (Result, error)
	// Close cancels the ticker and every pending delay. No callback fires afterwards.
	Close()
}

// core is the lifecycle shared by the three rounds: the countdown and its ticker,
// the presentation delays, and the first-completion-wins guard.
type core struct {
	mu    sync.Mutex
	clock clockwork.Clock
	cd    countdown

	ticker clockwork.Ticker
	halt   chan struct{}
	halted bool
	timers []clockwork.Timer

	// expire returns the timeout label and points. Called with mu held.
	expire func() (string, int)

	complete  bool
	closed    bool
	delivered bool
	result    Result
	onAnswer  AnswerFunc
	done      chan struct{}
	gone      chan struct{}
}

func (c *core) init(opts Options, limit, interval time.Duration, step float64, expire func() (string, int)) {
	c.clock = opts.Clock
	c.onAnswer = opts.OnAnswer
	c.expire = expire
	c.cd = newCountdown(limit, interval, step, c.clock.Now())
	c.halt = make(chan struct{})
	c.done = make(chan struct{})
	c.gone = make(chan struct{})
}

// start begins ticking. The ticker is created before returning so fake clocks see it immediately.
func (c *core) start() {
	c.ticker = c.clock.NewTicker(c.cd.interval)
	go c.run(c.ticker, c.halt)
}

func (c *core) run(ticker clockwork.Ticker, halt <-chan struct{}) {
	for {
		select {
		case <-halt:
			return
		case <-ticker.Chan():
			c.tick()
		}
	}
}

func (c *core) tick() {
	c.mu.Lock()
	if c.complete || c.closed {
		c.mu.Unlock()
		return
	}
	var after func()
	if c.cd.advance(c.clock.Now()) {
		after = c.timeoutLocked()
	}
	c.unlock(after)
}

// unlock releases mu and then runs after, if any. Result callbacks never run under the lock.
func (c *core) unlock(after func()) {
	c.mu.Unlock()
	if after != nil {
		after()
	}
}

// activeLocked reports whether the round still accepts input. If the clock ran out
// since the last tick the timeout path is taken and returned as after.
func (c *core) activeLocked() (ok bool, after func()) {
	if c.complete || c.closed {
		return false, nil
	}
	if c.cd.advance(c.clock.Now()) {
		return false, c.timeoutLocked()
	}
	return true, nil
}

func (c *core) timeoutLocked() func() {
	label, points := c.expire()
	return c.finishLocked(Result{Label: label, Points: points, TimedOut: true}, 0)
}

// finishLocked marks the round complete. Only the first caller wins; later calls are no-ops.
// With no delay the returned func delivers the result and must be run after unlocking.
func (c *core) finishLocked(res Result, delay time.Duration) func() {
	if c.complete {
		return nil
	}
	c.complete = true
	c.cd.freeze()
	c.haltLocked()
	c.result = res
	if delay <= 0 {
		return c.deliver
	}
	c.timers = append(c.timers, c.clock.AfterFunc(delay, c.deliver))
	return nil
}

func (c *core) deliver() {
	c.mu.Lock()
	if c.closed || c.delivered {
		c.mu.Unlock()
		return
	}
	c.delivered = true
	res, fn := c.result, c.onAnswer
	close(c.done)
	c.mu.Unlock()

	if fn != nil {
		fn(res.Label, res.Points)
	}
}

// afterLocked schedules fn after d. fn runs with mu held and only while the round
// is still active; the clock is re-checked first so a concurrent expiry wins.
func (c *core) afterLocked(d time.Duration, fn func() func()) {
	c.timers = append(c.timers, c.clock.AfterFunc(d, func() {
		c.mu.Lock()
		ok, after := c.activeLocked()
		if ok {
			after = fn()
		}
		c.unlock(after)
	}))
}

func (c *core) haltLocked() {
	if c.halted {
		return
	}
	c.halted = true
	if c.ticker != nil {
		c.ticker.Stop()
	}
	close(c.halt)
}

// Skip ends the round with timeout scoring.
func (c *core) Skip() bool {
	c.mu.Lock()
	ok, after := c.activeLocked()
	if ok {
		after = c.timeoutLocked()
	}
	c.unlock(after)
	return ok
}

// Close disposes the round.
func (c *core) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.haltLocked()
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	close(c.gone)
}

// Wait blocks until the round delivers its result.
func (c *core) Wait(ctx context.Context) (Result, error) {
	select {
	case <-c.done:
	case <-c.gone:
		select {
		case <-c.done:
		default:
			return Result{}, ErrClosed
		}
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, nil
}

func (c *core) baseSnapshotLocked(kind domain.RoundKind, text string) Snapshot {
	return Snapshot{
		Kind:      kind,
		Question:  text,
		TimeLimit: c.cd.limit,
		TimeLeft:  c.cd.left,
		Complete:  c.complete,
	}
}

// New starts a round of the given kind.
func New(kind domain.RoundKind, q domain.Question, timeLimit time.Duration, opts Options) (Round, error) {
	switch kind {
	case domain.KindSpeed:
		return NewSpeedRound(q, timeLimit, opts), nil
	case domain.KindMatch:
		return NewMatchRound(q, timeLimit, opts), nil
	case domain.KindPlacement:
		return NewPlacementRound(q, timeLimit, opts), nil
	}
	return nil, domain.ErrUnsupportedRoundKind
}
