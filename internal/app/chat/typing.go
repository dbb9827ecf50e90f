package chat

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// Pulse records one keystroke. The first pulse of a burst emits
// typing_start; every pulse reschedules the single stop timer, so
// typing_stop fires after the quiet period following the last keystroke.
func (e *Engine) Pulse() {
	e.mu.Lock()
	partner := e.partner
	if partner == "" {
		e.mu.Unlock()
		return
	}
	first := !e.typingActive
	e.typingActive = true
	// Cancel before scheduling: at most one outstanding stop timer. Stop
	// cannot retract a callback that already fired, so the generation fences
	// out a stale callback racing the reschedule.
	e.cancelStopTimerLocked()
	e.typingGen++
	gen := e.typingGen
	e.stopTimer = time.AfterFunc(e.quiet, func() { e.quietExpired(gen) })
	e.mu.Unlock()

	if first {
		e.publishTyping(core.EvTypingStart, partner)
	}
}

// TypingActive reports whether a typing burst is in flight.
func (e *Engine) TypingActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.typingActive
}

func (e *Engine) quietExpired(gen uint64) {
	e.mu.Lock()
	if gen != e.typingGen || !e.typingActive {
		e.mu.Unlock()
		return
	}
	e.typingActive = false
	e.stopTimer = nil
	partner := e.partner
	e.mu.Unlock()

	if partner != "" {
		e.publishTyping(core.EvTypingStop, partner)
	}
}

func (e *Engine) cancelStopTimerLocked() {
	if e.stopTimer != nil {
		e.stopTimer.Stop()
		e.stopTimer = nil
	}
}

func (e *Engine) publishTyping(event string, partner domain.UserID) {
	if err := e.ch.Publish(event, core.TypingPayload{ReceiverID: partner}); err != nil {
		log.Error().Err(err).Str("module", "chat").Str("event", event).Msg("typing publish")
	}
}
