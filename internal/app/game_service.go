package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"bondquest-rounds/internal/domain"
	"bondquest-rounds/internal/round"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// SessionRepository abstracts how couple sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(coupleID string) *Session
	Get(coupleID string) (*Session, bool)
	DeleteIfEmpty(coupleID string)
}

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// ResultRecorder persists or forwards a finished round.
type ResultRecorder interface {
	Record(ctx context.Context, outcome domain.Outcome) error
}

// RoundObserver is notified of round lifecycle events (metrics).
type RoundObserver interface {
	RoundStarted(kind domain.RoundKind)
	RoundFinished(outcome domain.Outcome, elapsed time.Duration)
	RoundDiscarded(kind domain.RoundKind)
}

// RoundLimits are the default time limits per round kind.
type RoundLimits struct {
	Speed     time.Duration
	Match     time.Duration
	Placement time.Duration
}

// DefaultRoundLimits matches the product defaults.
func DefaultRoundLimits() RoundLimits {
	return RoundLimits{
		Speed:     10 * time.Second,
		Match:     60 * time.Second,
		Placement: 45 * time.Second,
	}
}

func (l RoundLimits) forQuestion(q domain.Question) time.Duration {
	if q.TimeLimit > 0 {
		return time.Duration(q.TimeLimit) * time.Second
	}
	switch q.Kind {
	case domain.KindMatch:
		return l.Match
	case domain.KindPlacement:
		return l.Placement
	default:
		return l.Speed
	}
}

// RoundView is what players see of a running round.
type RoundView struct {
	RoundID    string `json:"roundId"`
	QuestionID string `json:"questionId"`
	Applied    bool   `json:"applied"`
	round.Snapshot
}

// Option configures a GameService.
type Option func(*GameService)

// WithRecorders adds result recorders; every finished round is passed to each of them.
func WithRecorders(recorders ...ResultRecorder) Option {
	return func(s *GameService) { s.recorders = append(s.recorders, recorders...) }
}

// WithObserver sets the lifecycle observer.
func WithObserver(o RoundObserver) Option {
	return func(s *GameService) { s.observer = o }
}

// WithClock overrides the clock rounds run on.
func WithClock(c clockwork.Clock) Option {
	return func(s *GameService) { s.clock = c }
}

// WithRoundLimits overrides the default time limits.
func WithRoundLimits(l RoundLimits) Option {
	return func(s *GameService) { s.limits = l }
}

// WithRand seeds round shuffles, for deterministic tests.
func WithRand(rnd *rand.Rand) Option {
	return func(s *GameService) { s.rnd = rnd }
}

// GameService contains the round use cases: start, act, score, and standings.
type GameService struct {
	sessions      SessionRepository
	questions     QuestionRepository
	recorders     []ResultRecorder
	observer      RoundObserver
	limits        RoundLimits
	clock         clockwork.Clock
	recordTimeout time.Duration

	mu     sync.Mutex
	rnd    *rand.Rand
	rounds map[string]*activeRound
}

type activeRound struct {
	id       string
	coupleID string
	userID   string
	question domain.Question
	round    round.Round
	started  time.Time
	outcome  chan domain.Outcome
}

func NewGameService(store SessionRepository, questions QuestionRepository, opts ...Option) *GameService {
	s := &GameService{
		sessions:      store,
		questions:     questions,
		observer:      nopObserver{},
		limits:        DefaultRoundLimits(),
		clock:         clockwork.NewRealClock(),
		recordTimeout: 5 * time.Second,
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		rounds:        make(map[string]*activeRound),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Join registers or refreshes a partner in a couple session.
func (s *GameService) Join(_ context.Context, coupleID, userID, displayName string) (domain.Leaderboard, error) {
	session := s.sessions.GetOrCreate(coupleID)
	return session.join(userID, displayName), nil
}

// Leave removes a partner, disposes their running rounds, and drops the session if empty.
func (s *GameService) Leave(_ context.Context, coupleID, userID string) {
	for _, ar := range s.roundsOf(coupleID, userID) {
		ar.round.Close()
	}
	session, ok := s.sessions.Get(coupleID)
	if !ok {
		return
	}
	session.leave(userID)
	if session.isEmpty() {
		s.sessions.DeleteIfEmpty(coupleID)
	}
}

// Subscribe returns a channel that receives leaderboard updates for a couple.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, coupleID string) (<-chan domain.Leaderboard, func(), error) {
	session, ok := s.sessions.Get(coupleID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// StartRound plays a question as the round kind it declares. The returned channel
// receives the single outcome and is then closed; it is closed empty if the round is disposed.
func (s *GameService) StartRound(ctx context.Context, coupleID, userID, questionID string) (RoundView, <-chan domain.Outcome, error) {
	session, ok := s.sessions.Get(coupleID)
	if !ok {
		return RoundView{}, nil, domain.ErrSessionNotFound
	}
	if !session.hasParticipant(userID) {
		return RoundView{}, nil, domain.ErrParticipantNotFound
	}

	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return RoundView{}, nil, err
	}
	if !q.Kind.Valid() {
		return RoundView{}, nil, domain.ErrUnsupportedRoundKind
	}

	s.mu.Lock()
	rnd := rand.New(rand.NewSource(s.rnd.Int63()))
	s.mu.Unlock()

	r, err := round.New(q.Kind, q, s.limits.forQuestion(q), round.Options{Clock: s.clock, Rand: rnd})
	if err != nil {
		return RoundView{}, nil, err
	}
	ar := &activeRound{
		id:       uuid.NewString(),
		coupleID: coupleID,
		userID:   userID,
		question: q,
		round:    r,
		started:  s.clock.Now(),
		outcome:  make(chan domain.Outcome, 1),
	}

	s.mu.Lock()
	s.rounds[ar.id] = ar
	s.mu.Unlock()
	s.observer.RoundStarted(q.Kind)

	log.Info().
		Str("round_id", ar.id).
		Str("couple_id", coupleID).
		Str("user_id", userID).
		Str("question_id", q.ID).
		Str("kind", string(q.Kind)).
		Msg("round started")

	go s.await(ar)
	return ar.view(false), ar.outcome, nil
}

// Act applies a player interaction. Interactions the round ignores are reported with Applied=false.
func (s *GameService) Act(_ context.Context, roundID, userID string, action domain.Action) (RoundView, error) {
	ar, err := s.lookup(roundID, userID)
	if err != nil {
		return RoundView{}, err
	}
	applied, err := apply(ar.round, action)
	if err != nil {
		return RoundView{}, err
	}
	return ar.view(applied), nil
}

// Round returns the current view of a running round.
func (s *GameService) Round(_ context.Context, roundID, userID string) (RoundView, error) {
	ar, err := s.lookup(roundID, userID)
	if err != nil {
		return RoundView{}, err
	}
	return ar.view(false), nil
}

// Close disposes every running round.
func (s *GameService) Close() {
	s.mu.Lock()
	active := make([]*activeRound, 0, len(s.rounds))
	for _, ar := range s.rounds {
		active = append(active, ar)
	}
	s.mu.Unlock()
	for _, ar := range active {
		ar.round.Close()
	}
}

func (s *GameService) lookup(roundID, userID string) (*activeRound, error) {
	s.mu.Lock()
	ar, ok := s.rounds[roundID]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrRoundNotFound
	}
	if ar.userID != userID {
		return nil, domain.ErrRoundOwnership
	}
	return ar, nil
}

func (s *GameService) roundsOf(coupleID, userID string) []*activeRound {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*activeRound
	for _, ar := range s.rounds {
		if ar.coupleID == coupleID && ar.userID == userID {
			out = append(out, ar)
		}
	}
	return out
}

// await waits for the round's single result and settles it.
func (s *GameService) await(ar *activeRound) {
	defer close(ar.outcome)
	res, err := ar.round.Wait(context.Background())

	s.mu.Lock()
	delete(s.rounds, ar.id)
	s.mu.Unlock()

	if err != nil {
		s.observer.RoundDiscarded(ar.question.Kind)
		log.Debug().Err(err).Str("round_id", ar.id).Msg("round discarded")
		return
	}

	outcome := domain.Outcome{
		RoundID:     ar.id,
		CoupleID:    ar.coupleID,
		UserID:      ar.userID,
		QuestionID:  ar.question.ID,
		Kind:        ar.question.Kind,
		Label:       res.Label,
		Points:      res.Points,
		TimedOut:    res.TimedOut,
		CompletedAt: s.clock.Now(),
	}
	s.settle(outcome)
	s.observer.RoundFinished(outcome, outcome.CompletedAt.Sub(ar.started))
	ar.outcome <- outcome
}

func (s *GameService) settle(outcome domain.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
	defer cancel()

	var errs []error
	for _, rec := range s.recorders {
		if err := rec.Record(ctx, outcome); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Error().Err(err).Str("round_id", outcome.RoundID).Msg("failed to record round outcome")
	}

	session, ok := s.sessions.Get(outcome.CoupleID)
	if !ok {
		log.Warn().Str("couple_id", outcome.CoupleID).Msg("session gone before round finished")
		return
	}
	_, total, err := session.addPoints(outcome.UserID, outcome.Points)
	if err != nil {
		log.Warn().Err(err).Str("user_id", outcome.UserID).Msg("points not credited")
		return
	}
	log.Info().
		Str("round_id", outcome.RoundID).
		Str("user_id", outcome.UserID).
		Str("label", outcome.Label).
		Int("points", outcome.Points).
		Int("total", total).
		Bool("timed_out", outcome.TimedOut).
		Msg("round finished")
}

func (ar *activeRound) view(applied bool) RoundView {
	return RoundView{
		RoundID:    ar.id,
		QuestionID: ar.question.ID,
		Applied:    applied,
		Snapshot:   ar.round.Snapshot(),
	}
}

func apply(r round.Round, action domain.Action) (bool, error) {
	if action.Type == domain.ActionSkip {
		return r.Skip(), nil
	}
	switch rr := r.(type) {
	case *round.SpeedRound:
		if action.Type == domain.ActionSelect {
			return rr.Select(action.Option), nil
		}
	case *round.MatchRound:
		if action.Type == domain.ActionFlip {
			return rr.Flip(action.CardID), nil
		}
	case *round.PlacementRound:
		switch action.Type {
		case domain.ActionDrag:
			return rr.DragStart(action.ItemID), nil
		case domain.ActionDrop:
			return rr.Drop(action.ZoneID), nil
		}
	}
	return false, domain.ErrUnsupportedAction
}

type nopObserver struct{}

func (nopObserver) RoundStarted(domain.RoundKind) {}

func (nopObserver) RoundFinished(domain.Outcome, time.Duration) {}

func (nopObserver) RoundDiscarded(domain.RoundKind) {}
