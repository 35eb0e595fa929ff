package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"bondquest-rounds/internal/domain"
	"github.com/redis/go-redis/v9"
)

// recentRounds is how many outcomes are kept per player.
const recentRounds = 50

// ResultStore keeps a short history of finished rounds and the couple's running totals.
//
//	LPUSH   rounds:{userID} {json}   (trimmed to the newest 50)
//	ZINCRBY couple:{coupleID}:scores {points} {userID}
type ResultStore struct {
	client *redis.Client
}

func NewResultStore(client *redis.Client) *ResultStore {
	return &ResultStore{client: client}
}

func (s *ResultStore) Record(ctx context.Context, outcome domain.Outcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode outcome %s: %w", outcome.RoundID, err)
	}
	historyKey := s.historyKey(outcome.UserID)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, historyKey, payload)
		pipe.LTrim(ctx, historyKey, 0, recentRounds-1)
		pipe.ZIncrBy(ctx, s.scoresKey(outcome.CoupleID), float64(outcome.Points), outcome.UserID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store outcome %s: %w", outcome.RoundID, err)
	}
	return nil
}

// Recent returns up to limit of a player's outcomes, newest first.
func (s *ResultStore) Recent(ctx context.Context, userID string, limit int) ([]domain.Outcome, error) {
	if limit <= 0 || limit > recentRounds {
		limit = recentRounds
	}
	raw, err := s.client.LRange(ctx, s.historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history of %s: %w", userID, err)
	}
	out := make([]domain.Outcome, 0, len(raw))
	for _, item := range raw {
		var o domain.Outcome
		if err := json.Unmarshal([]byte(item), &o); err != nil {
			return nil, fmt.Errorf("decode history of %s: %w", userID, err)
		}
		out = append(out, o)
	}
	return out, nil
}

// Totals returns the accumulated points per player of a couple.
func (s *ResultStore) Totals(ctx context.Context, coupleID string) (map[string]int, error) {
	members, err := s.client.ZRangeWithScores(ctx, s.scoresKey(coupleID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read totals of %s: %w", coupleID, err)
	}
	totals := make(map[string]int, len(members))
	for _, m := range members {
		userID, _ := m.Member.(string)
		totals[userID] = int(m.Score)
	}
	return totals, nil
}

func (s *ResultStore) historyKey(userID string) string {
	return "rounds:" + userID
}

func (s *ResultStore) scoresKey(coupleID string) string {
	return "couple:" + coupleID + ":scores"
}
