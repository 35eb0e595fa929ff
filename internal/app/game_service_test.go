package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bondquest-rounds/internal/app"
	"bondquest-rounds/internal/domain"
	"bondquest-rounds/internal/infra/memory"
	"github.com/jonboulle/clockwork"
)

func TestStartRoundCreditsPoints(t *testing.T) {
	fc := clockwork.NewFakeClock()
	obs := &recordingObserver{}
	log := memory.NewResultLog(0)
	svc := newService(fc, app.WithRecorders(log), app.WithObserver(obs))
	defer svc.Close()
	ctx := context.Background()

	if _, err := svc.Join(ctx, "couple-1", "u1", "Alex"); err != nil {
		t.Fatalf("join: %v", err)
	}
	view, outcomes, err := svc.StartRound(ctx, "couple-1", "u1", "speed-1")
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if view.Kind != domain.KindSpeed || view.QuestionID != "speed-1" || view.TimeLimit != 10 {
		t.Fatalf("unexpected view %+v", view)
	}

	fc.Advance(2 * time.Second)
	acted, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionSelect, Option: "Rome"})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if !acted.Applied || acted.Selected != "Rome" || !acted.Complete {
		t.Fatalf("unexpected view after select %+v", acted)
	}
	fc.Advance(time.Second)

	outcome := receive(t, outcomes)
	if outcome.Label != "Rome" || outcome.Points != 14 || outcome.TimedOut {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if _, ok := <-outcomes; ok {
		t.Fatalf("expected outcome channel closed after the result")
	}

	updates, cancel, err := svc.Subscribe(ctx, "couple-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	lb := <-updates
	if len(lb.Entries) != 1 || lb.Entries[0].Score != 14 {
		t.Fatalf("expected 14 points credited, got %+v", lb.Entries)
	}
	if got := log.ForUser("u1"); len(got) != 1 || got[0].RoundID != view.RoundID {
		t.Fatalf("expected recorder to receive the outcome, got %+v", got)
	}
	if started, finished, _ := obs.counts(); started != 1 || finished != 1 {
		t.Fatalf("expected one started and finished round, got %d/%d", started, finished)
	}
	if _, err := svc.Round(ctx, view.RoundID, "u1"); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected finished round to be dropped, got %v", err)
	}
}

func TestStartRoundErrors(t *testing.T) {
	svc := newService(clockwork.NewFakeClock())
	defer svc.Close()
	ctx := context.Background()

	if _, _, err := svc.StartRound(ctx, "nobody", "u1", "speed-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")
	if _, _, err := svc.StartRound(ctx, "couple-1", "u9", "speed-1"); !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
	if _, _, err := svc.StartRound(ctx, "couple-1", "u1", "missing"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
	if _, _, err := svc.StartRound(ctx, "couple-1", "u1", "trivia-1"); !errors.Is(err, domain.ErrUnsupportedRoundKind) {
		t.Fatalf("expected ErrUnsupportedRoundKind, got %v", err)
	}
}

func TestActErrors(t *testing.T) {
	svc := newService(clockwork.NewFakeClock())
	defer svc.Close()
	ctx := context.Background()

	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")
	_, _ = svc.Join(ctx, "couple-1", "u2", "Sam")
	view, _, err := svc.StartRound(ctx, "couple-1", "u1", "speed-1")
	if err != nil {
		t.Fatalf("start round: %v", err)
	}

	if _, err := svc.Act(ctx, "no-such-round", "u1", domain.Action{Type: domain.ActionSkip}); !errors.Is(err, domain.ErrRoundNotFound) {
		t.Fatalf("expected ErrRoundNotFound, got %v", err)
	}
	if _, err := svc.Act(ctx, view.RoundID, "u2", domain.Action{Type: domain.ActionSkip}); !errors.Is(err, domain.ErrRoundOwnership) {
		t.Fatalf("expected ErrRoundOwnership, got %v", err)
	}
	if _, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionFlip, CardID: 1}); !errors.Is(err, domain.ErrUnsupportedAction) {
		t.Fatalf("expected ErrUnsupportedAction, got %v", err)
	}

	ignored, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionSelect, Option: "Berlin"})
	if err != nil {
		t.Fatalf("act: %v", err)
	}
	if ignored.Applied || ignored.Complete {
		t.Fatalf("expected unknown option to be ignored, got %+v", ignored)
	}
}

func TestSkipMatchRoundTimesOut(t *testing.T) {
	svc := newService(clockwork.NewFakeClock())
	defer svc.Close()
	ctx := context.Background()

	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")
	view, outcomes, err := svc.StartRound(ctx, "couple-1", "u1", "match-1")
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if view.TotalPairs != 4 || len(view.Cards) != 8 {
		t.Fatalf("expected a four pair deck, got %+v", view)
	}
	for _, c := range view.Cards {
		if c.Content != "" {
			t.Fatalf("face-down card content leaked: %+v", c)
		}
	}

	if acted, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionSkip}); err != nil || !acted.Applied {
		t.Fatalf("expected skip to apply, got %+v (%v)", acted, err)
	}
	outcome := receive(t, outcomes)
	if outcome.Label != "memory_match_time_up" || outcome.Points != 0 || !outcome.TimedOut {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestRoundLimits(t *testing.T) {
	svc := newService(clockwork.NewFakeClock(), app.WithRoundLimits(app.RoundLimits{
		Speed:     3 * time.Second,
		Match:     30 * time.Second,
		Placement: 20 * time.Second,
	}))
	defer svc.Close()
	ctx := context.Background()
	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")

	cases := map[string]float64{
		"speed-1":     3,
		"match-1":     30,
		"placement-1": 12, // the question's own limit wins
	}
	for questionID, want := range cases {
		view, _, err := svc.StartRound(ctx, "couple-1", "u1", questionID)
		if err != nil {
			t.Fatalf("start %s: %v", questionID, err)
		}
		if view.TimeLimit != want || view.TimeLeft != want {
			t.Fatalf("%s: expected limit %v, got %v/%v", questionID, want, view.TimeLimit, view.TimeLeft)
		}
	}
}

func TestLeaveDisposesRounds(t *testing.T) {
	fc := clockwork.NewFakeClock()
	obs := &recordingObserver{}
	svc := newService(fc, app.WithObserver(obs))
	defer svc.Close()
	ctx := context.Background()

	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")
	view, outcomes, err := svc.StartRound(ctx, "couple-1", "u1", "speed-1")
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionSelect, Option: "Paris"}); err != nil {
		t.Fatalf("act: %v", err)
	}

	svc.Leave(ctx, "couple-1", "u1")
	fc.Advance(time.Second)

	select {
	case o, ok := <-outcomes:
		if ok {
			t.Fatalf("disposed round delivered %+v", o)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("outcome channel not closed after leave")
	}
	waitFor(t, func() bool { _, _, discarded := obs.counts(); return discarded == 1 })
	if _, _, err := svc.StartRound(ctx, "couple-1", "u1", "speed-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected empty session dropped, got %v", err)
	}
}

func TestRecorderFailureStillCreditsPoints(t *testing.T) {
	svc := newService(clockwork.NewFakeClock(), app.WithRecorders(failingRecorder{}))
	defer svc.Close()
	ctx := context.Background()

	_, _ = svc.Join(ctx, "couple-1", "u1", "Alex")
	view, outcomes, err := svc.StartRound(ctx, "couple-1", "u1", "placement-1")
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if _, err := svc.Act(ctx, view.RoundID, "u1", domain.Action{Type: domain.ActionSkip}); err != nil {
		t.Fatalf("skip: %v", err)
	}
	outcome := receive(t, outcomes)
	if outcome.Label != "drag_drop_time_up" || outcome.Points != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	updates, cancel, err := svc.Subscribe(ctx, "couple-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if lb := <-updates; len(lb.Entries) != 1 {
		t.Fatalf("expected participant kept, got %+v", lb)
	}
}

func newService(fc clockwork.Clock, opts ...app.Option) *app.GameService {
	questions := memory.NewQuestionRepository(memory.NewStaticQuestionLoader(map[string]domain.Question{
		"speed-1": {
			ID:      "speed-1",
			Text:    "Where was our first date?",
			Options: []string{"Paris", "Rome", "Lisbon"},
			Kind:    domain.KindSpeed,
		},
		"match-1": {
			ID:      "match-1",
			Text:    "Match the things we love",
			Options: []string{"coffee", "hiking", "jazz", "tacos"},
			Kind:    domain.KindMatch,
		},
		"placement-1": {
			ID:        "placement-1",
			Text:      "Put our milestones in order",
			Options:   []string{"met", "moved in", "engaged"},
			Kind:      domain.KindPlacement,
			TimeLimit: 12,
		},
		"trivia-1": {
			ID:   "trivia-1",
			Text: "Unknown game",
			Kind: domain.RoundKind("trivia"),
		},
	}), time.Minute)
	opts = append([]app.Option{app.WithClock(fc)}, opts...)
	return app.NewGameService(memory.NewSessionStore(), questions, opts...)
}

func receive(t *testing.T, outcomes <-chan domain.Outcome) domain.Outcome {
	t.Helper()
	select {
	case o, ok := <-outcomes:
		if !ok {
			t.Fatalf("outcome channel closed without a result")
		}
		return o
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for outcome")
	}
	return domain.Outcome{}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	started   int
	finished  int
	discarded int
}

func (o *recordingObserver) RoundStarted(domain.RoundKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started++
}

func (o *recordingObserver) RoundFinished(domain.Outcome, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

func (o *recordingObserver) RoundDiscarded(domain.RoundKind) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.discarded++
}

func (o *recordingObserver) counts() (started, finished, discarded int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started, o.finished, o.discarded
}

type failingRecorder struct{}

func (failingRecorder) Record(context.Context, domain.Outcome) error {
	return errors.New("score backend down")
}
