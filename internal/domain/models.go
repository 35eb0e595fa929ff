package domain

import "time"

// RoundKind selects which mini-game a question is played as.
type RoundKind string

const (
	KindSpeed     RoundKind = "speed"
	KindMatch     RoundKind = "match"
	KindPlacement RoundKind = "placement"
)

// Valid reports whether k names a known round type.
func (k RoundKind) Valid() bool {
	switch k {
	case KindSpeed, KindMatch, KindPlacement:
		return true
	}
	return false
}

// Question is the read-only input to a round.
type Question struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Options   []string  `json:"options"`
	Kind      RoundKind `json:"kind"`
	TimeLimit int       `json:"timeLimit,omitempty"` // seconds; zero uses the configured default
}

// Card is one face of a memory-match deck. Two cards share each PairID.
type Card struct {
	ID        int    `json:"id"`
	Content   string `json:"content"`
	PairID    int    `json:"pairId"`
	IsFlipped bool   `json:"isFlipped"`
	IsMatched bool   `json:"isMatched"`
}

// Item is a draggable option in a placement round.
type Item struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Index    int    `json:"-"`
	IsPlaced bool   `json:"isPlaced"`
}

// Zone is a fixed drop target in a placement round.
type Zone struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Index  int    `json:"-"`
	ItemID string `json:"itemId,omitempty"` // empty when unoccupied
}

// Action types accepted by GameService.Act.
const (
	ActionSelect = "select"
	ActionFlip   = "flip"
	ActionDrag   = "drag"
	ActionDrop   = "drop"
	ActionSkip   = "skip"
)

// Action is a single player interaction with a running round.
type Action struct {
	Type   string `json:"type"`
	Option string `json:"option,omitempty"`
	CardID int    `json:"cardId,omitempty"`
	ItemID string `json:"itemId,omitempty"`
	ZoneID string `json:"zoneId,omitempty"`
}

// Outcome is the single scored result of a finished round.
type Outcome struct {
	RoundID     string    `json:"roundId"`
	CoupleID    string    `json:"coupleId"`
	UserID      string    `json:"userId"`
	QuestionID  string    `json:"questionId"`
	Kind        RoundKind `json:"kind"`
	Label       string    `json:"label"`
	Points      int       `json:"points"`
	TimedOut    bool      `json:"timedOut"`
	CompletedAt time.Time `json:"completedAt"`
}

// Participant represents a partner and their accumulated round points.
type Participant struct {
	UserID      string
	DisplayName string
	Score       int
	LastUpdated time.Time
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a couple session.
type Leaderboard struct {
	CoupleID  string             `json:"coupleId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}
