// Package signal owns the long-lived duplex connection to the coordination
// server and routes inbound named events to the handlers currently
// registered for a view.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// envelope is the wire form of one named event.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Options tune the connection; zero values fall back to defaults.
type Options struct {
	ReadLimit  int64
	SendBuffer int
}

// Channel is a process-scoped signaling connection with explicit lifecycle.
// It implements core.SignalChannel.
type Channel struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool

	subMu  sync.RWMutex
	subs   map[string]map[uint64]core.Handler
	nextID uint64
}

// Dial opens the websocket connection and starts the read/write pumps.
// The channel lives until Close or ctx cancellation.
func Dial(ctx context.Context, url string, opts Options) (*Channel, error) {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if opts.ReadLimit > 0 {
		ws.SetReadLimit(opts.ReadLimit)
	}

	c := &Channel{
		conn: ws,
		send: make(chan []byte, opts.SendBuffer),
		subs: make(map[string]map[uint64]core.Handler),
	}
	go c.writePump(ctx)
	go c.readPump(ctx)
	log.Info().Str("module", "signal").Str("url", url).Msg("channel open")
	return c, nil
}

// Publish marshals payload and queues it for delivery. Delivery is not
// acknowledged; callers must not assume the server received it.
func (c *Channel) Publish(event string, payload any) error {
	env := struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: payload}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}
	return c.trySend(b)
}

func (c *Channel) trySend(b []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return domain.ErrTransportUnavailable
	}
	select {
	case c.send <- b:
	default:
		return ErrBackpressure
	}
	return nil
}

// Subscribe registers h for event and returns a cancelation token. Multiple
// handlers per event are allowed; they run in registration order.
func (c *Channel) Subscribe(event string, h core.Handler) core.Subscription {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	m, ok := c.subs[event]
	if !ok {
		m = make(map[uint64]core.Handler)
		c.subs[event] = m
	}
	c.nextID++
	id := c.nextID
	m[id] = h
	return &subscription{ch: c, event: event, id: id}
}

// subscription is the token returned by Subscribe. Cancel is idempotent.
type subscription struct {
	ch    *Channel
	event string
	id    uint64
	once  sync.Once
}

func (s *subscription) Cancel() {
	s.once.Do(func() {
		s.ch.subMu.Lock()
		if m, ok := s.ch.subs[s.event]; ok {
			delete(m, s.id)
			if len(m) == 0 {
				delete(s.ch.subs, s.event)
			}
		}
		s.ch.subMu.Unlock()
	})
}

// Announce registers this client for presence and cross-view notifications.
func (c *Channel) Announce(self domain.UserID) error {
	return c.Publish(core.EvJoin, self)
}

// JoinRoom enters the conversation room shared by the two users.
func (c *Channel) JoinRoom(user1, user2 domain.UserID) error {
	return c.Publish(core.EvJoinChatRoom, core.JoinRoomPayload{User1ID: user1, User2ID: user2})
}

// Close shuts the connection down. Idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
	log.Info().Str("module", "signal").Msg("channel closed")
}

// fail surfaces a transport error as the distinct error event rather than
// throwing into callers.
func (c *Channel) fail(err error) {
	b, _ := json.Marshal(core.ErrorPayload{Error: err.Error()})
	c.dispatch(core.EvError, b)
}

// dispatch runs every handler currently registered for event, sequentially,
// in registration order.
func (c *Channel) dispatch(event string, data []byte) {
	c.subMu.RLock()
	m := c.subs[event]
	ids := make([]uint64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	handlers := make([]core.Handler, 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, m[id])
	}
	c.subMu.RUnlock()

	if len(handlers) == 0 {
		log.Debug().Str("module", "signal").Str("event", event).Msg("no subscriber")
		return
	}
	for _, h := range handlers {
		h(core.Frame(data))
	}
}
