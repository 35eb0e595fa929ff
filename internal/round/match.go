package round

import (
	"math/rand"
	"time"

	"bondquest-rounds/internal/domain"
)

const (
	LabelMatchCompleted = "memory_match_completed"
	LabelMatchTimeUp    = "memory_match_time_up"

	matchConfirmDelay = 500 * time.Millisecond
	matchMissDelay    = time.Second
	matchFinishDelay  = time.Second

	maxMatchPairs   = 6
	minMatchOptions = 4
)

// fallbackPairWords builds the deck when a question has too few options.
var fallbackPairWords = []string{"Love", "Trust", "Laughter", "Adventure", "Romance", "Friendship"}

// MatchRound is a memory game: flip two cards at a time and find every pair.
type MatchRound struct {
	core
	question   domain.Question
	cards      []domain.Card
	flipped    []int
	matched    map[int]struct{}
	totalPairs int
	moves      int
}

var _ Round = (*MatchRound)(nil)

// NewMatchRound deals a shuffled deck from the question options and starts a
// one-second countdown from timeLimit.
func NewMatchRound(q domain.Question, timeLimit time.Duration, opts Options) *MatchRound {
	opts = opts.withDefaults()
	r := &MatchRound{
		question: q,
		matched:  make(map[int]struct{}),
	}
	r.cards = dealDeck(pairWords(q.Options), opts.Rand)
	r.totalPairs = len(r.cards) / 2
	r.init(opts, timeLimit, standardInterval, standardStep, func() (string, int) {
		return LabelMatchTimeUp, MatchTimeoutScore(len(r.matched))
	})
	r.start()
	return r
}

// pairWords picks up to six distinct options, or the fallback set when fewer than four are given.
func pairWords(options []string) []string {
	if len(options) < minMatchOptions {
		return fallbackPairWords
	}
	seen := make(map[string]struct{}, maxMatchPairs)
	words := make([]string, 0, maxMatchPairs)
	for _, opt := range options {
		if _, dup := seen[opt]; dup {
			continue
		}
		seen[opt] = struct{}{}
		words = append(words, opt)
		if len(words) == maxMatchPairs {
			break
		}
	}
	return words
}

// dealDeck duplicates each word into a pair and shuffles. Card IDs follow the shuffled order.
func dealDeck(words []string, rnd *rand.Rand) []domain.Card {
	cards := make([]domain.Card, 0, 2*len(words))
	for pairID, w := range words {
		cards = append(cards,
			domain.Card{Content: w, PairID: pairID},
			domain.Card{Content: w, PairID: pairID},
		)
	}
	rnd.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	for i := range cards {
		cards[i].ID = i
	}
	return cards
}

func (r *MatchRound) Kind() domain.RoundKind { return domain.KindMatch }

// Flip turns a card face up. The second flip of a turn counts as a move and
// schedules the pair to be confirmed or hidden again.
func (r *MatchRound) Flip(cardID int) bool {
	r.mu.Lock()
	if cardID < 0 || cardID >= len(r.cards) {
		r.mu.Unlock()
		return false
	}
	ok, after := r.activeLocked()
	if !ok {
		r.unlock(after)
		return false
	}
	card := &r.cards[cardID]
	if card.IsMatched || card.IsFlipped || len(r.flipped) >= 2 {
		r.mu.Unlock()
		return false
	}
	card.IsFlipped = true
	r.flipped = append(r.flipped, cardID)

	if len(r.flipped) == 2 {
		r.moves++
		first, second := r.cards[r.flipped[0]], r.cards[r.flipped[1]]
		if first.PairID == second.PairID {
			r.afterLocked(matchConfirmDelay, r.confirmLocked)
		} else {
			r.afterLocked(matchMissDelay, r.hideLocked)
		}
	}
	r.mu.Unlock()
	return true
}

func (r *MatchRound) confirmLocked() func() {
	for _, id := range r.flipped {
		r.cards[id].IsMatched = true
		r.matched[r.cards[id].PairID] = struct{}{}
	}
	r.flipped = r.flipped[:0]

	if len(r.matched) < r.totalPairs {
		return nil
	}
	score := MatchScore(r.cd.left, r.moves, r.totalPairs)
	return r.finishLocked(Result{Label: LabelMatchCompleted, Points: score}, matchFinishDelay)
}

func (r *MatchRound) hideLocked() func() {
	for _, id := range r.flipped {
		r.cards[id].IsFlipped = false
	}
	r.flipped = r.flipped[:0]
	return nil
}

func (r *MatchRound) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.baseSnapshotLocked(domain.KindMatch, r.question.Text)
	s.Cards = make([]domain.Card, len(r.cards))
	for i, c := range r.cards {
		if !c.IsFlipped && !c.IsMatched {
			c.Content = ""
			c.PairID = -1
		}
		s.Cards[i] = c
	}
	s.Moves = r.moves
	s.MatchedPairs = len(r.matched)
	s.TotalPairs = r.totalPairs
	return s
}
