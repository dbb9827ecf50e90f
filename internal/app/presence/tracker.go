// Package presence propagates online/offline status and routes cross-view
// message alerts.
package presence

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// Tracker is a pure routing filter keyed on the active view identity. No
// state machine: an alert is raised for message notifications whose sender
// is not the currently open conversation.
type Tracker struct {
	notify core.Notifier

	mu       sync.RWMutex
	active   domain.UserID
	statuses map[domain.UserID]domain.PresenceStatus
}

func NewTracker(notify core.Notifier) *Tracker {
	return &Tracker{
		notify:   notify,
		statuses: make(map[domain.UserID]domain.PresenceStatus),
	}
}

// SetActiveView records which conversation is open; empty means none.
func (t *Tracker) SetActiveView(partner domain.UserID) {
	t.mu.Lock()
	t.active = partner
	t.mu.Unlock()
}

// HandleNotification raises a non-blocking alert unless the active view
// already matches the sender.
func (t *Tracker) HandleNotification(p core.NotificationPayload) {
	t.mu.RLock()
	active := t.active
	t.mu.RUnlock()
	if p.SenderID == active {
		return
	}

	from := "a user"
	if p.Sender != nil && p.Sender.FirstName != "" {
		from = p.Sender.FirstName
	}
	log.Info().Str("module", "presence").Str("sender", string(p.SenderID)).Msg("cross-view message alert")
	t.notify.Toast(fmt.Sprintf("New message from %s", from))
}

// HandleUserStatus records a peer going online or offline.
func (t *Tracker) HandleUserStatus(p core.UserStatusPayload) {
	if p.Status != domain.StatusOnline && p.Status != domain.StatusOffline {
		log.Warn().Str("module", "presence").Str("status", string(p.Status)).Msg("unknown status")
		return
	}
	t.mu.Lock()
	t.statuses[p.UserID] = p.Status
	t.mu.Unlock()
	t.notify.PresenceChanged(p.UserID, p.Status)
}

// Status returns the last known presence of user, offline when never seen.
func (t *Tracker) Status(user domain.UserID) domain.PresenceStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.statuses[user]; ok {
		return s
	}
	return domain.StatusOffline
}

// Online returns the users currently known to be online.
func (t *Tracker) Online() []domain.UserID {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.UserID, 0, len(t.statuses))
	for id, s := range t.statuses {
		if s == domain.StatusOnline {
			out = append(out, id)
		}
	}
	return out
}
