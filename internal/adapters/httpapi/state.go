// Package httpapi exposes the client's user actions and read-only state over
// a local HTTP control surface. It is UI-agnostic: rendering is someone
// else's job.
package httpapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

const maxToasts = 50

type Toast struct {
	ID   string    `json:"id"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// UIState implements core.Notifier by accumulating what a front-end would
// re-render: call state, incoming call, typing flag, toasts, last failure.
type UIState struct {
	mu            sync.RWMutex
	callState     domain.CallState
	callPartner   domain.UserID
	incoming      *domain.Caller
	incomingVideo bool
	partnerTyping bool
	toasts        []Toast
	lastError     string
}

func NewUIState() *UIState {
	return &UIState{callState: domain.CallIdle}
}

func (s *UIState) CallStateChanged(partner domain.UserID, state domain.CallState) {
	s.mu.Lock()
	s.callState = state
	s.callPartner = partner
	if state == domain.CallIdle {
		s.incoming = nil
		s.partnerTyping = false
	}
	s.mu.Unlock()
}

func (s *UIState) IncomingCall(caller domain.Caller, isVideo bool) {
	s.mu.Lock()
	c := caller
	s.incoming = &c
	s.incomingVideo = isVideo
	s.mu.Unlock()
}

func (s *UIState) RemoteTrack(kind core.TrackKind) {
	log.Info().Str("module", "httpapi").Str("kind", string(kind)).Msg("remote media arrived")
}

func (s *UIState) MessageAppended(msg domain.Message) {
	log.Debug().Str("module", "httpapi").Str("id", msg.ID).Msg("message appended")
}

func (s *UIState) MessageUpdated(msg domain.Message) {
	log.Debug().Str("module", "httpapi").Str("id", msg.ID).Msg("message updated")
}

func (s *UIState) PartnerTyping(_ domain.UserID, typing bool) {
	s.mu.Lock()
	s.partnerTyping = typing
	s.mu.Unlock()
}

func (s *UIState) PresenceChanged(user domain.UserID, status domain.PresenceStatus) {
	log.Info().Str("module", "httpapi").Str("user", string(user)).Str("status", string(status)).Msg("presence")
}

func (s *UIState) Toast(text string) {
	s.mu.Lock()
	s.toasts = append(s.toasts, Toast{ID: uuid.NewString(), Text: text, At: time.Now()})
	if len(s.toasts) > maxToasts {
		s.toasts = s.toasts[len(s.toasts)-maxToasts:]
	}
	s.mu.Unlock()
}

func (s *UIState) Failure(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

// StatusView is the read model served by GET /api/status.
type StatusView struct {
	CallState     domain.CallState `json:"callState"`
	CallPartner   domain.UserID    `json:"callPartner,omitempty"`
	Incoming      *domain.Caller   `json:"incoming,omitempty"`
	IncomingVideo bool             `json:"incomingVideo,omitempty"`
	PartnerTyping bool             `json:"partnerTyping"`
	Toasts        []Toast          `json:"toasts"`
	LastError     string           `json:"lastError,omitempty"`
}

func (s *UIState) View() StatusView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	toasts := make([]Toast, len(s.toasts))
	copy(toasts, s.toasts)
	return StatusView{
		CallState:     s.callState,
		CallPartner:   s.callPartner,
		Incoming:      s.incoming,
		IncomingVideo: s.incomingVideo,
		PartnerTyping: s.partnerTyping,
		Toasts:        toasts,
		LastError:     s.lastError,
	}
}
