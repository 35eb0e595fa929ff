package round

import "time"

// Tick cadences. Speed rounds count down in tenths so sub-second time still earns a bonus.
const (
	speedInterval    = 100 * time.Millisecond
	speedStep        = 0.1
	standardInterval = time.Second
	standardStep     = 1.0
)

// countdown tracks the seconds left in a round. It is owned by a single round
// and only touched with that round's mutex held.
type countdown struct {
	interval  time.Duration
	step      float64
	limit     float64
	left      float64
	startedAt time.Time
	applied   int
	frozen    bool
}

func newCountdown(limit time.Duration, interval time.Duration, step float64, now time.Time) countdown {
	secs := limit.Seconds()
	if secs < 0 {
		secs = 0
	}
	return countdown{
		interval:  interval,
		step:      step,
		limit:     secs,
		left:      secs,
		startedAt: now,
	}
}

// advance applies one step for every whole interval elapsed since start that has
// not been applied yet, and reports whether the countdown has run out.
// Steps are subtracted one at a time so the remaining time drifts exactly as a
// per-tick decrement would.
func (c *countdown) advance(now time.Time) bool {
	if c.frozen {
		return c.left <= 0
	}
	due := int(now.Sub(c.startedAt) / c.interval)
	for ; c.applied < due && c.left > 0; c.applied++ {
		c.left -= c.step
	}
	if c.left <= 0 {
		c.left = 0
		return true
	}
	return false
}

// freeze stops the countdown at its current value.
func (c *countdown) freeze() {
	c.frozen = true
}
