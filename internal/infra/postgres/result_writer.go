package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bondquest-rounds/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// RoundResult is a finished round as stored in round_results.
type RoundResult struct {
	bun.BaseModel `bun:"table:round_results"`

	RoundID     string    `bun:"round_id,pk"`
	CoupleID    string    `bun:"couple_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	QuestionID  string    `bun:"question_id,notnull"`
	Kind        string    `bun:"kind,notnull"`
	Label       string    `bun:"label,notnull"`
	Points      int       `bun:"points,notnull"`
	TimedOut    bool      `bun:"timed_out,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

func resultFromOutcome(o domain.Outcome) *RoundResult {
	return &RoundResult{
		RoundID:     o.RoundID,
		CoupleID:    o.CoupleID,
		UserID:      o.UserID,
		QuestionID:  o.QuestionID,
		Kind:        string(o.Kind),
		Label:       o.Label,
		Points:      o.Points,
		TimedOut:    o.TimedOut,
		CompletedAt: o.CompletedAt,
	}
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// ResultWriter appends finished rounds to round_results.
type ResultWriter struct {
	db *bun.DB
}

func NewResultWriter(db *bun.DB) *ResultWriter {
	return &ResultWriter{db: db}
}

// Record inserts the outcome. A replayed round id is ignored.
func (w *ResultWriter) Record(ctx context.Context, outcome domain.Outcome) error {
	_, err := w.db.NewInsert().
		Model(resultFromOutcome(outcome)).
		On("CONFLICT (round_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert round result %s: %w", outcome.RoundID, err)
	}
	return nil
}

// CoupleTotals sums points per player across every stored round of a couple.
func (w *ResultWriter) CoupleTotals(ctx context.Context, coupleID string) (map[string]int, error) {
	var rows []struct {
		UserID string `bun:"user_id"`
		Total  int    `bun:"total"`
	}
	err := w.db.NewSelect().
		Model((*RoundResult)(nil)).
		Column("user_id").
		ColumnExpr("SUM(points) AS total").
		Where("couple_id = ?", coupleID).
		Group("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("sum round results of %s: %w", coupleID, err)
	}
	totals := make(map[string]int, len(rows))
	for _, r := range rows {
		totals[r.UserID] = r.Total
	}
	return totals, nil
}
