// Package app wires the signaling channel to the call, chat and presence
// services and owns the active-view identity.
package app

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/app/call"
	"github.com/tonutonmoy/chat-client-side/internal/app/chat"
	"github.com/tonutonmoy/chat-client-side/internal/app/presence"
	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

type Client struct {
	Self     domain.Caller
	Channel  core.SignalChannel
	Calls    *call.Machine
	Chat     *chat.Engine
	Presence *presence.Tracker

	media  core.MediaPipeline
	notify core.Notifier

	subs []core.Subscription

	recMu     sync.Mutex
	recording core.LocalStream
}

func NewClient(self domain.Caller, ch core.SignalChannel, calls *call.Machine, engine *chat.Engine, tracker *presence.Tracker, media core.MediaPipeline, notify core.Notifier) *Client {
	return &Client{
		Self:     self,
		Channel:  ch,
		Calls:    calls,
		Chat:     engine,
		Presence: tracker,
		media:    media,
		notify:   notify,
	}
}

// decode wraps a typed handler in payload unmarshaling. Bad payloads are
// logged and dropped, never propagated.
func decode[T any](event string, h func(T)) core.Handler {
	return func(data core.Frame) {
		var p T
		if err := json.Unmarshal(data, &p); err != nil {
			log.Error().Err(err).Str("module", "app").Str("event", event).Msg("bad payload")
			return
		}
		h(p)
	}
}

// Bind registers every inbound event with the channel and announces this
// client for presence. Tokens are retained so Close can release them
// deterministically.
func (c *Client) Bind() error {
	sub := func(event string, h core.Handler) {
		c.subs = append(c.subs, c.Channel.Subscribe(event, h))
	}

	sub(core.EvReceiveMessage, decode(core.EvReceiveMessage, c.Chat.HandleReceive))
	sub(core.EvMessageSeenReceipt, decode(core.EvMessageSeenReceipt, c.Chat.HandleSeenReceipt))
	sub(core.EvPartnerTyping, decode(core.EvPartnerTyping, c.Chat.HandlePartnerTyping))

	sub(core.EvReceiveCall, decode(core.EvReceiveCall, c.Calls.HandleIncomingOffer))
	sub(core.EvCallAnswered, decode(core.EvCallAnswered, c.Calls.HandleAnswer))
	sub(core.EvICECandidate, decode(core.EvICECandidate, func(p core.ICECandidatePayload) {
		c.Calls.HandleRemoteCandidate(p.Candidate)
	}))
	sub(core.EvCallRejected, func(core.Frame) { c.Calls.HandleRejected() })
	sub(core.EvCallEnded, func(core.Frame) { c.Calls.HandleRemoteEnded() })

	sub(core.EvNewNotification, decode(core.EvNewNotification, c.Presence.HandleNotification))
	sub(core.EvUserStatus, decode(core.EvUserStatus, c.Presence.HandleUserStatus))

	sub(core.EvError, decode(core.EvError, func(p core.ErrorPayload) {
		log.Error().Str("module", "app").Str("error", p.Error).Msg("transport error event")
		c.notify.Failure(domain.ErrTransportUnavailable)
	}))

	return c.Channel.Announce(c.Self.ID)
}

// OpenConversation makes partner the active view: history is loaded, the
// room is joined and cross-view alerts for this partner are suppressed.
func (c *Client) OpenConversation(ctx context.Context, partner domain.UserID) error {
	if err := c.Chat.Open(ctx, partner); err != nil {
		return err
	}
	c.Presence.SetActiveView(partner)
	log.Info().Str("module", "app").Str("partner", string(partner)).Msg("conversation opened")
	return nil
}

// CloseConversation tears the active view down: any call is ended, the
// typing timer dies with the engine state.
func (c *Client) CloseConversation() {
	c.Calls.End()
	c.Chat.Close()
	c.Presence.SetActiveView("")
	log.Info().Str("module", "app").Msg("conversation closed")
}

// StartVoiceRecording acquires an audio-only capture for a voice message and
// pins it so an ending call does not release it.
func (c *Client) StartVoiceRecording(ctx context.Context) error {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	if c.recording != nil {
		return nil
	}
	stream, err := c.media.Acquire(ctx, false)
	if err != nil {
		c.notify.Failure(err)
		return err
	}
	c.recording = stream
	c.Calls.PinRecording(stream)
	log.Info().Str("module", "app").Msg("voice recording started")
	return nil
}

// StopVoiceRecording releases the pinned capture.
func (c *Client) StopVoiceRecording() {
	c.recMu.Lock()
	defer c.recMu.Unlock()
	if c.recording == nil {
		return
	}
	c.Calls.UnpinRecording()
	c.media.Release(c.recording)
	c.recording = nil
	log.Info().Str("module", "app").Msg("voice recording stopped")
}

// Close releases every subscription token, ends any call and stops any
// recording. Safe to call once the channel is already gone.
func (c *Client) Close() {
	c.CloseConversation()
	c.StopVoiceRecording()
	for _, s := range c.subs {
		s.Cancel()
	}
	c.subs = nil
}
