package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"bondquest-rounds/internal/app"
	"bondquest-rounds/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuestionID string `json:"questionId"`
}

type actionPayload struct {
	RoundID string `json:"roundId"`
	Type    string `json:"type"`
	Option  string `json:"option,omitempty"`
	CardID  int    `json:"cardId,omitempty"`
	ItemID  string `json:"itemId,omitempty"`
	ZoneID  string `json:"zoneId,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// connection is the per-socket state: one writer goroutine drains send.
type connection struct {
	send       chan outboundMessage[any]
	closing    chan struct{}
	writerDone chan struct{}
	forwarders sync.WaitGroup
}

// push queues a message unless the writer has already given up.
func (c *connection) push(typ string, payload any) bool {
	select {
	case c.send <- outboundMessage[any]{Type: typ, Payload: payload}:
		return true
	case <-c.writerDone:
		return false
	}
}

func (c *connection) fail(err error) {
	c.push("error", errorPayload{Message: err.Error()})
}

// ServeWS upgrades HTTP requests to websockets and wires them into the round use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	coupleID := r.URL.Query().Get("coupleId")
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	if coupleID == "" || userID == "" || displayName == "" {
		http.Error(w, "missing coupleId, userId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	joined, err := h.service.Join(ctx, coupleID, userID, displayName)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.Leave(ctx, coupleID, userID)

	updates, cancel, err := h.service.Subscribe(ctx, coupleID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	c := &connection{
		send:       make(chan outboundMessage[any], 16),
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
	}

	go func() {
		defer close(c.writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("user_id", userID).Msg("ws write failed")
				// unblock the reader
				_ = conn.Close()
				return
			}
		}
	}()

	c.forwarders.Add(1)
	go func() {
		defer c.forwarders.Done()
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case c.send <- outboundMessage[any]{Type: "leaderboard", Payload: update}:
				case <-c.closing:
					return
				}
			case <-c.closing:
				return
			}
		}
	}()

	c.push("joined", joined)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" {
				c.fail(errors.New("invalid start payload"))
				continue
			}
			view, outcome, err := h.service.StartRound(ctx, coupleID, userID, payload.QuestionID)
			if err != nil {
				c.fail(err)
				continue
			}
			c.push("round", view)
			c.forwardOutcome(outcome)
		case "action":
			var payload actionPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.RoundID == "" {
				c.fail(errors.New("invalid action payload"))
				continue
			}
			view, err := h.service.Act(ctx, payload.RoundID, userID, domain.Action{
				Type:   payload.Type,
				Option: payload.Option,
				CardID: payload.CardID,
				ItemID: payload.ItemID,
				ZoneID: payload.ZoneID,
			})
			if err != nil {
				c.fail(err)
				continue
			}
			c.push("round", view)
		default:
			c.fail(errors.New("unsupported message type"))
		}
	}

	close(c.closing)
	c.forwarders.Wait()
	close(c.send)
	<-c.writerDone
}

// forwardOutcome relays the round's single result to the socket.
func (c *connection) forwardOutcome(outcome <-chan domain.Outcome) {
	c.forwarders.Add(1)
	go func() {
		defer c.forwarders.Done()
		select {
		case o, ok := <-outcome:
			if !ok {
				return
			}
			select {
			case c.send <- outboundMessage[any]{Type: "roundResult", Payload: o}:
			case <-c.closing:
			}
		case <-c.closing:
		}
	}()
}
