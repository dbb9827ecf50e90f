package call

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

var ErrNoIncomingCall = errors.New("no incoming call to answer")

// Machine enforces the single-active-session invariant: at most one non-Idle
// session per client, new attempts rejected with domain.ErrBusy.
//
// Slow operations (capture, negotiation) run outside the lock; an epoch
// counter detects sessions torn down underneath a suspended operation, whose
// late results are then discarded.
type Machine struct {
	self   domain.Caller
	ch     core.SignalChannel
	media  core.MediaPipeline
	peers  core.PeerFactory
	ringer core.Ringer
	notify core.Notifier

	mu     sync.Mutex
	sess   *session
	epoch  uint64
	pinned core.LocalStream
}

func NewMachine(self domain.Caller, ch core.SignalChannel, media core.MediaPipeline, peers core.PeerFactory, ringer core.Ringer, notify core.Notifier) *Machine {
	return &Machine{
		self:   self,
		ch:     ch,
		media:  media,
		peers:  peers,
		ringer: ringer,
		notify: notify,
	}
}

// Start initiates an outbound call: acquire media, create the peer
// connection, send the offer. The session moves Idle → Calling → Ringing.
func (m *Machine) Start(ctx context.Context, partner domain.UserID, isVideo bool) error {
	m.mu.Lock()
	if m.sess != nil && m.sess.state.Active() {
		m.mu.Unlock()
		return domain.ErrBusy
	}
	s := newSession(partner, isVideo)
	s.state = domain.CallCalling
	m.sess = s
	m.epoch++
	e := m.epoch
	m.mu.Unlock()

	log.Info().Str("module", "call").Str("partner", string(partner)).Bool("video", isVideo).Msg("starting call")
	m.notify.CallStateChanged(partner, domain.CallCalling)
	m.ringer.StartOutgoing()

	stream, err := m.media.Acquire(ctx, isVideo)
	if err != nil {
		m.failSetup(e, err)
		return err
	}

	mc, err := m.setupConnection(ctx, e, partner, stream)
	if err != nil {
		return err
	}
	if mc == nil { // session went away while we were suspended
		return nil
	}

	offer, err := mc.CreateAndSetOffer()
	if err != nil {
		m.failSetup(e, err)
		return err
	}

	if pubErr := m.ch.Publish(core.EvCallUser, core.CallUserPayload{
		CalleeID: partner,
		Offer:    *offer,
		Caller:   m.self,
		IsVideo:  isVideo,
	}); pubErr != nil {
		err := fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, pubErr)
		m.failSetup(e, err)
		return err
	}

	m.mu.Lock()
	ringing := m.epoch == e && m.sess != nil && m.sess.state == domain.CallCalling
	if ringing {
		m.sess.state = domain.CallRinging
	}
	m.mu.Unlock()
	if ringing {
		m.notify.CallStateChanged(partner, domain.CallRinging)
	}
	return nil
}

// HandleIncomingOffer stores a remote offer. A second call while any session
// is active is refused with a busy signal, leaving the current session
// untouched.
func (m *Machine) HandleIncomingOffer(p core.ReceiveCallPayload) {
	m.mu.Lock()
	if m.sess != nil && m.sess.state.Active() {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Str("caller", string(p.Caller.ID)).Msg("busy, rejecting incoming call")
		if err := m.ch.Publish(core.EvRejectCall, core.RejectCallPayload{CallerID: p.Caller.ID}); err != nil {
			log.Error().Err(err).Str("module", "call").Msg("busy reject publish")
		}
		return
	}
	offer := p.Offer
	s := newSession(p.Caller.ID, p.IsVideo)
	s.state = domain.CallIncoming
	s.caller = p.Caller
	s.offer = &offer
	m.sess = s
	m.epoch++
	m.mu.Unlock()

	log.Info().Str("module", "call").Str("caller", string(p.Caller.ID)).Bool("video", p.IsVideo).Msg("incoming call")
	m.ringer.StartIncoming()
	m.notify.CallStateChanged(p.Caller.ID, domain.CallIncoming)
	m.notify.IncomingCall(p.Caller, p.IsVideo)
}

// Accept answers the stored incoming offer: acquire media, create the peer
// connection, apply the remote offer, drain queued candidates, send the
// answer.
func (m *Machine) Accept(ctx context.Context) error {
	m.mu.Lock()
	if m.sess == nil || m.sess.state != domain.CallIncoming {
		m.mu.Unlock()
		return ErrNoIncomingCall
	}
	s := m.sess
	s.state = domain.CallOngoing
	e := m.epoch
	partner := s.partner
	callerID := s.caller.ID
	isVideo := s.isVideo
	offer := *s.offer
	m.mu.Unlock()

	log.Info().Str("module", "call").Str("caller", string(callerID)).Msg("accepting call")
	m.ringer.Stop()

	stream, err := m.media.Acquire(ctx, isVideo)
	if err != nil {
		m.failSetup(e, err)
		return err
	}

	mc, err := m.setupConnection(ctx, e, partner, stream)
	if err != nil {
		return err
	}
	if mc == nil {
		return nil
	}

	answer, err := mc.ApplyOfferAndCreateAnswer(offer)
	if err != nil {
		m.failSetup(e, err)
		return err
	}

	// The remote description is applied: drain the queued candidates in
	// arrival order before anything else reaches the connection. A session
	// torn down while we negotiated must not push an answer to the wire.
	m.mu.Lock()
	if m.epoch != e || m.sess == nil {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Msg("session gone during negotiation, dropping answer")
		return nil
	}
	m.drainPendingLocked(mc)
	m.mu.Unlock()

	if pubErr := m.ch.Publish(core.EvAnswerCall, core.AnswerCallPayload{
		CallerID: callerID,
		Answer:   *answer,
	}); pubErr != nil {
		err := fmt.Errorf("%w: %w", domain.ErrTransportUnavailable, pubErr)
		m.failSetup(e, err)
		return err
	}

	m.mu.Lock()
	live := m.epoch == e && m.sess != nil && m.sess.state == domain.CallOngoing
	m.mu.Unlock()
	if live {
		m.notify.CallStateChanged(partner, domain.CallOngoing)
	}
	return nil
}

// Reject refuses the stored incoming offer and notifies the caller.
func (m *Machine) Reject() error {
	m.mu.Lock()
	if m.sess == nil || m.sess.state != domain.CallIncoming {
		m.mu.Unlock()
		return ErrNoIncomingCall
	}
	callerID := m.sess.caller.ID
	m.teardownLocked(false)
	m.mu.Unlock()

	if err := m.ch.Publish(core.EvRejectCall, core.RejectCallPayload{CallerID: callerID}); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("reject publish")
	}
	return nil
}

// HandleAnswer applies the remote answer on the caller side and drains the
// queued candidates.
func (m *Machine) HandleAnswer(p core.CallAnsweredPayload) {
	m.mu.Lock()
	s := m.sess
	if s == nil || !s.dialing() || s.mc == nil {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Msg("stale answer dropped")
		return
	}
	if err := s.mc.ApplyAnswer(p.Answer); err != nil {
		m.teardownLocked(true)
		m.mu.Unlock()
		log.Error().Err(err).Str("module", "call").Msg("apply answer")
		m.notify.Failure(err)
		return
	}
	m.drainPendingLocked(s.mc)
	s.state = domain.CallOngoing
	partner := s.partner
	m.mu.Unlock()

	m.ringer.Stop()
	m.notify.CallStateChanged(partner, domain.CallOngoing)
}

// HandleRemoteCandidate applies a candidate if the remote description is
// set, otherwise queues it. Candidates never reach the connection early.
func (m *Machine) HandleRemoteCandidate(ci webrtc.ICECandidateInit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sess
	switch {
	case s == nil || !s.state.Active():
		log.Debug().Str("module", "call").Msg("candidate for no session dropped")
	case s.mc != nil && s.mc.RemoteDescriptionSet():
		if err := s.mc.AddICECandidate(ci); err != nil {
			log.Error().Err(err).Str("module", "call").Msg("add candidate")
		}
	default:
		s.pending = append(s.pending, ci)
	}
}

// HandleRejected reacts to the remote side declining an outbound call.
func (m *Machine) HandleRejected() {
	m.mu.Lock()
	s := m.sess
	if s == nil || !s.dialing() {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Msg("stale rejection dropped")
		return
	}
	partner := s.partner
	m.teardownLocked(false)
	m.mu.Unlock()

	log.Info().Str("module", "call").Str("partner", string(partner)).Msg("call rejected by remote")
	m.notify.Toast("Call rejected")
}

// HandleRemoteEnded tears the session down after the remote side hung up or
// canceled. No end notification goes back.
func (m *Machine) HandleRemoteEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return
	}
	m.teardownLocked(false)
}

// End hangs up from any state. Idempotent; emits end_call at most once and
// only when a dialing or ongoing session existed.
func (m *Machine) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sess == nil {
		return
	}
	m.teardownLocked(true)
}

// SetTrackEnabled toggles the local track of the given kind without
// renegotiation. Logs and returns when no such track exists.
func (m *Machine) SetTrackEnabled(kind core.TrackKind, enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sess
	if s == nil || s.local == nil {
		log.Debug().Str("module", "call").Str("kind", string(kind)).Msg("toggle without session")
		return
	}
	if !s.local.Has(kind) {
		log.Debug().Str("module", "call").Str("kind", string(kind)).Msg("toggle without track")
		return
	}
	if s.mc != nil {
		if err := s.mc.SetTrackEnabled(kind, enabled); err != nil {
			log.Error().Err(err).Str("module", "call").Str("kind", string(kind)).Msg("toggle track")
			return
		}
	}
	switch kind {
	case core.KindAudio:
		s.audioOn = enabled
	case core.KindVideo:
		s.videoOn = enabled
	}
}

// PinRecording marks a capture as independently in use for voice-message
// recording; tear-down preserves it. UnpinRecording lifts the mark.
func (m *Machine) PinRecording(s core.LocalStream) {
	m.mu.Lock()
	m.pinned = s
	m.mu.Unlock()
}

func (m *Machine) UnpinRecording() {
	m.mu.Lock()
	m.pinned = nil
	m.mu.Unlock()
}

// Snapshot returns a read-only view of the current session.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.sess
	if s == nil {
		return Snapshot{State: domain.CallIdle, AudioEnabled: true, VideoEnabled: true}
	}
	snap := Snapshot{
		State:        s.state,
		PartnerID:    s.partner,
		IsVideo:      s.isVideo,
		AudioEnabled: s.audioOn,
		VideoEnabled: s.videoOn,
	}
	if s.state == domain.CallIncoming {
		caller := s.caller
		snap.Caller = &caller
	}
	return snap
}

// setupConnection wires a fresh peer connection for the current attempt and
// attaches the capture tracks. Returns (nil, nil) when the session was torn
// down while the caller was suspended; stream ownership passes to the
// session on success.
func (m *Machine) setupConnection(ctx context.Context, e uint64, partner domain.UserID, stream core.LocalStream) (core.MediaConnection, error) {
	m.mu.Lock()
	if m.epoch != e || m.sess == nil || !m.sess.state.Active() {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Msg("session gone during capture, releasing")
		m.media.Release(stream)
		return nil, nil
	}
	m.sess.local = stream
	m.mu.Unlock()

	mc, err := m.peers(partner)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrNegotiationFailure, err)
		m.failSetup(e, err)
		return nil, err
	}

	mc.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		m.sendLocalCandidate(e, partner, ci)
	})
	mc.OnTrack(func(track *webrtc.TrackRemote) {
		m.notify.RemoteTrack(core.TrackKind(track.Kind().String()))
	})
	mc.OnDisconnected(func() {
		m.handleDisconnect(e)
	})

	if err := mc.Start(ctx); err != nil {
		mc.Close()
		err = fmt.Errorf("%w: %w", domain.ErrNegotiationFailure, err)
		m.failSetup(e, err)
		return nil, err
	}
	for _, track := range stream.Tracks() {
		if err := mc.AddLocalTrack(track); err != nil {
			mc.Close()
			err = fmt.Errorf("%w: %w", domain.ErrNegotiationFailure, err)
			m.failSetup(e, err)
			return nil, err
		}
	}

	m.mu.Lock()
	if m.epoch != e || m.sess == nil || !m.sess.state.Active() {
		m.mu.Unlock()
		log.Warn().Str("module", "call").Msg("session gone during setup, closing")
		mc.Close()
		m.media.Release(stream)
		return nil, nil
	}
	m.sess.mc = mc
	m.mu.Unlock()
	return mc, nil
}

func (m *Machine) sendLocalCandidate(e uint64, partner domain.UserID, ci webrtc.ICECandidateInit) {
	m.mu.Lock()
	stale := m.epoch != e || m.sess == nil
	m.mu.Unlock()
	if stale {
		return
	}
	if err := m.ch.Publish(core.EvICECandidate, core.ICECandidatePayload{
		TargetUserID: partner,
		Candidate:    ci,
	}); err != nil {
		log.Error().Err(err).Str("module", "call").Msg("candidate publish")
	}
}

func (m *Machine) handleDisconnect(e uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != e || m.sess == nil {
		return
	}
	log.Info().Str("module", "call").Str("partner", string(m.sess.partner)).Msg("peer connection lost")
	m.teardownLocked(false)
}

// failSetup surfaces err and tears the attempt down unless a newer session
// already replaced it.
func (m *Machine) failSetup(e uint64, err error) {
	log.Error().Err(err).Str("module", "call").Msg("call setup failed")
	m.notify.Failure(err)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != e || m.sess == nil {
		return
	}
	m.teardownLocked(true)
}

// drainPendingLocked applies the queued remote candidates in arrival order
// and clears the queue. Caller holds m.mu and has applied the remote
// description.
func (m *Machine) drainPendingLocked(mc core.MediaConnection) {
	s := m.sess
	for _, ci := range s.pending {
		if err := mc.AddICECandidate(ci); err != nil {
			log.Error().Err(err).Str("module", "call").Msg("drain candidate")
		}
	}
	s.pending = nil
}

// teardownLocked is the single exit path to Idle: stop tones, close the peer
// connection, release local media (unless pinned by a voice recording),
// notify the remote at most once when the local side initiated the end of a
// dialing or ongoing call. Caller holds m.mu.
func (m *Machine) teardownLocked(initiated bool) {
	s := m.sess
	prior := s.state
	s.state = domain.CallEnding
	m.notify.CallStateChanged(s.partner, domain.CallEnding)

	m.ringer.Stop()
	if s.mc != nil {
		s.mc.Close()
	}
	if s.local != nil && s.local != m.pinned {
		m.media.Release(s.local)
	}
	s.pending = nil

	if initiated && !s.endNotified &&
		(prior == domain.CallCalling || prior == domain.CallRinging || prior == domain.CallOngoing) {
		s.endNotified = true
		if err := m.ch.Publish(core.EvEndCall, core.EndCallPayload{PartnerID: s.partner}); err != nil {
			log.Error().Err(err).Str("module", "call").Msg("end_call publish")
		}
	}

	m.sess = nil
	m.epoch++
	log.Info().Str("module", "call").Str("partner", string(s.partner)).Str("from", string(prior)).Msg("session ended")
	m.notify.CallStateChanged(s.partner, domain.CallIdle)
}
