// Package chat keeps one conversation log in sync with the server: sends,
// echo merging, seen receipts and typing pulses.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

var ErrNoConversation = errors.New("no open conversation")

// Store is the REST collaborator surface the engine needs: history fetch and
// media upload.
type Store interface {
	History(ctx context.Context, self, partner domain.UserID) ([]domain.Message, error)
	Upload(ctx context.Context, r io.Reader, fileName string) (url, name string, err error)
}

type Engine struct {
	self   domain.UserID
	ch     core.SignalChannel
	store  Store
	notify core.Notifier
	quiet  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	partner domain.UserID
	msgs    []domain.Message
	index   map[string]int

	typingActive bool
	stopTimer    *time.Timer
	// typingGen invalidates quiet-timer callbacks that fired before a
	// reschedule but ran after it.
	typingGen uint64
}

func NewEngine(self domain.UserID, ch core.SignalChannel, store Store, notify core.Notifier, quiet time.Duration) *Engine {
	if quiet <= 0 {
		quiet = time.Second
	}
	return &Engine{
		self:   self,
		ch:     ch,
		store:  store,
		notify: notify,
		quiet:  quiet,
		now:    time.Now,
		index:  make(map[string]int),
	}
}

// Open switches the engine to the conversation with partner: joins the
// shared room and loads history from the store. A history failure leaves an
// empty log rather than blocking the view.
func (e *Engine) Open(ctx context.Context, partner domain.UserID) error {
	history, err := e.store.History(ctx, e.self, partner)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Str("partner", string(partner)).Msg("history fetch")
		history = nil
	}

	e.mu.Lock()
	e.cancelStopTimerLocked()
	e.typingActive = false
	e.partner = partner
	e.msgs = make([]domain.Message, 0, len(history))
	e.index = make(map[string]int)
	for _, msg := range history {
		if msg.ID != "" {
			if _, dup := e.index[msg.ID]; dup {
				continue
			}
			e.index[msg.ID] = len(e.msgs)
		}
		e.msgs = append(e.msgs, msg)
	}
	e.mu.Unlock()

	return e.ch.JoinRoom(e.self, partner)
}

// Close leaves the conversation. The typing timer is canceled, nothing is
// emitted.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelStopTimerLocked()
	e.typingActive = false
	e.partner = ""
	e.msgs = nil
	e.index = make(map[string]int)
}

// SendText publishes a text message. The visible log is not touched: the
// authoritative echo is the sole insertion path.
func (e *Engine) SendText(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return e.send(ctx, content, domain.MessageText, "")
}

// SendAttachment uploads the content first and publishes the message only
// once the collaborator returned a URL. On upload failure nothing is emitted
// and no placeholder is left in the log.
func (e *Engine) SendAttachment(ctx context.Context, r io.Reader, fileName string, t domain.MessageType) error {
	if !t.NeedsUpload() {
		return fmt.Errorf("message type %q does not carry an upload", t)
	}
	url, name, err := e.store.Upload(ctx, r, fileName)
	if err != nil {
		log.Error().Err(err).Str("module", "chat").Str("file", fileName).Msg("upload failed")
		e.notify.Failure(err)
		return err
	}
	return e.send(ctx, url, t, name)
}

func (e *Engine) send(ctx context.Context, content string, t domain.MessageType, fileName string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	e.mu.Lock()
	partner := e.partner
	if partner == "" {
		e.mu.Unlock()
		return ErrNoConversation
	}
	emitStop := e.typingActive
	e.typingActive = false
	e.cancelStopTimerLocked()
	e.mu.Unlock()

	// Sending resolves typing intent: stop immediately instead of waiting
	// out the quiet period.
	if emitStop {
		e.publishTyping(core.EvTypingStop, partner)
	}

	payload := core.SendMessagePayload{
		SenderID:   e.self,
		ReceiverID: partner,
		Content:    content,
		CreatedAt:  e.now(),
		Type:       t,
		FileName:   fileName,
	}
	if err := e.ch.Publish(core.EvSendMessage, payload); err != nil {
		log.Error().Err(err).Str("module", "chat").Msg("send publish")
		e.notify.Failure(domain.ErrTransportUnavailable)
		return fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, err)
	}
	return nil
}

// HandleReceive merges one authoritative message event into the log:
// duplicates (by id) are dropped, everything else is appended.
func (e *Engine) HandleReceive(msg domain.Message) {
	e.mu.Lock()
	if msg.ID != "" {
		if i, ok := e.index[msg.ID]; ok {
			var updated *domain.Message
			if msg.IsSeen && !e.msgs[i].IsSeen {
				e.msgs[i].IsSeen = true
				m := e.msgs[i]
				updated = &m
			}
			e.mu.Unlock()
			log.Debug().Str("module", "chat").Str("id", msg.ID).Msg("duplicate echo dropped")
			if updated != nil {
				e.notify.MessageUpdated(*updated)
			}
			return
		}
		e.index[msg.ID] = len(e.msgs)
	}
	e.msgs = append(e.msgs, msg)
	e.mu.Unlock()
	e.notify.MessageAppended(msg)
}

// MarkSeen reports that a partner message became visible; emits the seen
// event keyed by message id. No-op for own or already-seen messages.
func (e *Engine) MarkSeen(messageID string) error {
	e.mu.Lock()
	i, ok := e.index[messageID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("unknown message %q", messageID)
	}
	msg := e.msgs[i]
	if msg.SenderID == e.self || msg.IsSeen {
		e.mu.Unlock()
		return nil
	}
	e.msgs[i].IsSeen = true
	e.mu.Unlock()

	// senderId carries the message author so the server can route the
	// receipt back to them.
	return e.ch.Publish(core.EvMessageSeen, core.MessageSeenPayload{
		MessageID: messageID,
		SenderID:  msg.SenderID,
	})
}

// HandleSeenReceipt flips isSeen on a message the local user sent. The flip
// happens exactly once and never reverts.
func (e *Engine) HandleSeenReceipt(p core.SeenReceiptPayload) {
	e.mu.Lock()
	i, ok := e.index[p.MessageID]
	if !ok || e.msgs[i].SenderID != e.self || e.msgs[i].IsSeen {
		e.mu.Unlock()
		return
	}
	e.msgs[i].IsSeen = true
	msg := e.msgs[i]
	e.mu.Unlock()
	e.notify.MessageUpdated(msg)
}

// HandlePartnerTyping surfaces the partner's typing indicator; pulses from
// anyone but the open conversation's partner are ignored.
func (e *Engine) HandlePartnerTyping(p core.PartnerTypingPayload) {
	e.mu.Lock()
	partner := e.partner
	e.mu.Unlock()
	if partner == "" || p.SenderID != partner {
		return
	}
	e.notify.PartnerTyping(p.SenderID, p.IsTyping)
}

// Messages returns a snapshot of the visible log.
func (e *Engine) Messages() []domain.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.Message, len(e.msgs))
	copy(out, e.msgs)
	return out
}

// Partner returns the open conversation's partner, empty when none.
func (e *Engine) Partner() domain.UserID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.partner
}
