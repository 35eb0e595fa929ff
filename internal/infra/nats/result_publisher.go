package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bondquest-rounds/internal/domain"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// DefaultSubject carries one message per finished round.
const DefaultSubject = "bondquest.rounds.completed"

type Config struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Subject:       DefaultSubject,
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// publisher is the slice of *nats.Conn the result publisher needs.
type publisher interface {
	PublishMsg(msg *nats.Msg) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// ResultPublisher announces finished rounds so other services (achievements,
// notifications) can react without polling the score store.
type ResultPublisher struct {
	conn    publisher
	subject string
}

func NewResultPublisher(cfg Config) (*ResultPublisher, error) {
	opts := []nats.Option{
		nats.Name("bondquest-rounds"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newResultPublisher(nc, cfg.Subject), nil
}

func newResultPublisher(conn publisher, subject string) *ResultPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &ResultPublisher{conn: conn, subject: subject}
}

type roundCompleted struct {
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Outcome   domain.Outcome `json:"outcome"`
}

// Record publishes the outcome and flushes so a failure surfaces to the caller.
func (p *ResultPublisher) Record(ctx context.Context, outcome domain.Outcome) error {
	data, err := json.Marshal(roundCompleted{
		EventType: "round.completed",
		Timestamp: outcome.CompletedAt.UTC(),
		Outcome:   outcome,
	})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"Round-ID":  []string{outcome.RoundID},
			"Couple-ID": []string{outcome.CoupleID},
			"Kind":      []string{string(outcome.Kind)},
		},
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish round %s: %w", outcome.RoundID, err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush round %s: %w", outcome.RoundID, err)
	}

	log.Debug().
		Str("subject", p.subject).
		Str("round_id", outcome.RoundID).
		Msg("published round outcome")
	return nil
}

func (p *ResultPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
