package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"

	"contactgame/internal/engine"
	"contactgame/internal/logger"
	"contactgame/internal/metrics"
	"contactgame/internal/ratelimit"
	"contactgame/internal/repository"
	"contactgame/internal/store"
)

// actionRateLimit caps how often a single player may trigger a given
// inbound action; a player spamming OFFER or CONTACT gets throttled
// rather than flooding the room.
const (
	actionRateLimitMax    = 10
	actionRateLimitWindow = 10 * time.Second
)

// Connection timing.
const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

// Hub is one connection's actor: it owns the websocket, the Engine
// backing that player's game state, and the delayed-action timers the
// Engine schedules through it as a Delegate.
type Hub struct {
	username string
	conn     *websocket.Conn
	send     chan []byte
	registry *Registry
	st       store.Store
	limiter  *ratelimit.Limiter

	engine *engine.Engine
	roomID string

	done chan struct{}
}

// New constructs a Hub for an already-upgraded websocket connection
// and the identity resolved from its JWT.
func New(conn *websocket.Conn, registry *Registry, st store.Store, repo *repository.Repository, cfg engine.Config, username string) (*Hub, error) {
	h := &Hub{
		username: username,
		conn:     conn,
		send:     make(chan []byte, 256),
		registry: registry,
		st:       st,
		limiter:  ratelimit.New(st),
		done:     make(chan struct{}),
	}

	e, err := engine.New(context.Background(), st, repo, h, cfg, username)
	if err != nil {
		return nil, err
	}
	h.engine = e
	return h, nil
}

// OrderDelayedAction implements engine.Delegate: it schedules event to
// run against the engine again after the given delay, broadcasting
// whatever snapshot results.
func (h *Hub) OrderDelayedAction(after time.Duration, event engine.Event, args map[string]any) {
	go func() {
		time.Sleep(after)
		h.runAction(event, args, true)
	}()
}

// Run drives the connection to completion: it joins the player to a
// room, sends the initial snapshot, starts the read/write pumps, and
// blocks until the connection closes.
func (h *Hub) Run() {
	ctx := context.Background()

	room, err := h.engine.AppendUserToGame(ctx)
	if err != nil {
		logger.Error("session: failed to join game", "user", h.username, "err", err)
		h.conn.Close()
		return
	}
	h.roomID = room.ID()
	h.registry.Join(h.roomID, h)
	metrics.SessionsActive.Inc()

	go h.writePump()

	snapshot, err := h.engine.InitialInformation(ctx)
	if err != nil {
		logger.Error("session: failed to build initial snapshot", "user", h.username, "err", err)
		h.conn.Close()
		return
	}
	initial := mustMarshal(outbound{Event: string(h.engine.InitialEvent()), Data: snapshot})
	if h.engine.Restored {
		h.registry.Unicast(h, initial)
	} else {
		h.registry.Broadcast(h.roomID, initial)
	}

	h.readPump()
	<-h.done
}

func (h *Hub) readPump() {
	defer func() {
		h.disconnect()
		close(h.done)
	}()

	h.conn.SetReadLimit(4096)
	h.conn.SetReadDeadline(time.Now().Add(pongWait))
	h.conn.SetPongHandler(func(string) error {
		h.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := h.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleInbound(msg)
	}
}

func (h *Hub) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-h.send:
			h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = h.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := h.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			h.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := h.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) handleInbound(msg []byte) {
	var in inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		logger.Warn("session: malformed inbound message", "user", h.username, "err", err)
		return
	}

	if !h.limiter.Allow(context.Background(), h.username, in.Event, actionRateLimitMax, actionRateLimitWindow) {
		msg := mustMarshal(errorOutbound{
			Error: true,
			Event: in.Event,
			Data:  errorData{Details: "too many actions, slow down", ErrorType: "rate_limit"},
		})
		h.registry.Unicast(h, msg)
		return
	}

	h.runAction(engine.Event(in.Event), in.Data, false)
}

// runAction invokes one engine action and routes its result: a
// successful snapshot is broadcast to the room, a player/rule error is
// unicast to the sender, ErrSilentNoBroadcast emits nothing, and any
// other error is treated as fatal to the session. delayed marks
// invocations coming from a scheduled timer rather than a live inbound
// message (used only as logging context).
func (h *Hub) runAction(event engine.Event, data map[string]any, delayed bool) {
	ctx := context.Background()
	metrics.ActionsTotal.WithLabelValues(string(event)).Inc()

	snapshot, err := h.engine.PerformAction(ctx, event, data)
	if err == nil {
		msg := mustMarshal(outbound{Event: string(event), Data: snapshot})
		h.registry.Broadcast(h.roomID, msg)
		return
	}

	if errors.Is(err, engine.ErrSilentNoBroadcast) {
		return
	}

	var gameErr *engine.Error
	if errors.As(err, &gameErr) {
		metrics.ErrorsTotal.WithLabelValues(string(gameErr.Kind)).Inc()
		msg := mustMarshal(errorOutbound{
			Error: true,
			Event: string(event),
			Data:  errorData{Details: gameErr.Details, ErrorType: string(gameErr.Kind)},
		})
		h.registry.Unicast(h, msg)
		return
	}

	logger.Error("session: internal error performing action", "user", h.username, "event", event, "delayed", delayed, "err", err)
	h.conn.Close()
}

func (h *Hub) disconnect() {
	ctx := context.Background()
	if err := h.engine.DisconnectPlayer(ctx); err != nil {
		logger.Error("session: disconnect handling failed", "user", h.username, "err", err)
	}
	h.registry.Leave(h.roomID, h)
	metrics.SessionsActive.Dec()
	close(h.send)
}

func (h *Hub) deliver(msg []byte) {
	select {
	case h.send <- msg:
	default:
		logger.Warn("session: send buffer full, dropping message", "user", h.username)
	}
}

func mustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("session: failed to marshal outbound message", "err", err)
		return []byte(`{}`)
	}
	return b
}
