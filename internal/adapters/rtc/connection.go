// Package rtc wraps one pion peer connection per call session.
package rtc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// Config carries everything needed to build a peer connection.
// RegisterCodecs lets the capture layer install its codec parameters; when
// nil the pion defaults are used.
type Config struct {
	STUNServers    []string
	RegisterCodecs func(*webrtc.MediaEngine) error
}

func DefaultConfig() Config {
	return Config{STUNServers: []string{"stun:stun.l.google.com:19302"}}
}

type localSender struct {
	sender *webrtc.RTPSender
	track  webrtc.TrackLocal
}

// Connection implements core.MediaConnection.
type Connection struct {
	pc      *webrtc.PeerConnection
	partner domain.UserID
	cancel  context.CancelFunc

	mu      sync.Mutex
	closed  bool
	senders map[core.TrackKind]*localSender

	onICE          func(webrtc.ICECandidateInit)
	onTrack        func(*webrtc.TrackRemote)
	onDisconnected func()
	discOnce       sync.Once
}

// NewConnection builds the peer connection for one session with partner.
func NewConnection(cfg Config, partner domain.UserID) (*Connection, error) {
	me := &webrtc.MediaEngine{}
	if cfg.RegisterCodecs != nil {
		if err := cfg.RegisterCodecs(me); err != nil {
			return nil, fmt.Errorf("register codecs: %w", err)
		}
	} else if err := me.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(me, ir); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	// Generous ICE timeouts so a brief NAT hiccup does not immediately
	// terminate the call.
	se := webrtc.SettingEngine{}
	se.SetICETimeouts(30*time.Second, 120*time.Second, 2*time.Second)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithInterceptorRegistry(ir),
		webrtc.WithSettingEngine(se),
	)

	urls := cfg.STUNServers
	if len(urls) == 0 {
		urls = DefaultConfig().STUNServers
	}
	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: urls}},
	})
	if err != nil {
		return nil, fmt.Errorf("new peer connection: %w", err)
	}

	return &Connection{
		pc:      pc,
		partner: partner,
		senders: make(map[core.TrackKind]*localSender),
	}, nil
}

func (c *Connection) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		c.mu.Lock()
		fn := c.onICE
		c.mu.Unlock()
		if fn != nil {
			fn(cand.ToJSON())
		}
	})

	c.pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("partner", string(c.partner)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("remote track")
		c.mu.Lock()
		fn := c.onTrack
		c.mu.Unlock()
		if fn != nil {
			fn(track)
		}
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("partner", string(c.partner)).Str("peer_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateDisconnected ||
			s == webrtc.PeerConnectionStateFailed ||
			s == webrtc.PeerConnectionStateClosed {
			c.fireDisconnected()
		}
	})

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "rtc").Str("partner", string(c.partner)).Str("ice_state", s.String()).Msg("ICE state")
		if s == webrtc.ICEConnectionStateFailed || s == webrtc.ICEConnectionStateClosed {
			cancel()
		}
	})

	return nil
}

func (c *Connection) fireDisconnected() {
	c.mu.Lock()
	fn := c.onDisconnected
	c.mu.Unlock()
	if fn == nil {
		return
	}
	c.discOnce.Do(fn)
}

// CreateAndSetOffer builds the local offer. Candidates trickle through
// OnICECandidate; gathering completion is not awaited.
func (c *Connection) CreateAndSetOffer() (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create offer: %w", domain.ErrNegotiationFailure, err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return nil, fmt.Errorf("%w: set local offer: %w", domain.ErrNegotiationFailure, err)
	}
	return c.pc.LocalDescription(), nil
}

func (c *Connection) ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("%w: set remote offer: %w", domain.ErrNegotiationFailure, err)
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create answer: %w", domain.ErrNegotiationFailure, err)
	}
	if err := c.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("%w: set local answer: %w", domain.ErrNegotiationFailure, err)
	}
	return c.pc.LocalDescription(), nil
}

func (c *Connection) ApplyAnswer(answer webrtc.SessionDescription) error {
	if err := c.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("%w: set remote answer: %w", domain.ErrNegotiationFailure, err)
	}
	return nil
}

func (c *Connection) RemoteDescriptionSet() bool {
	return c.pc.RemoteDescription() != nil
}

func (c *Connection) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return c.pc.AddICECandidate(ci)
}

func (c *Connection) AddLocalTrack(track webrtc.TrackLocal) error {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	c.mu.Lock()
	c.senders[core.TrackKind(track.Kind().String())] = &localSender{sender: sender, track: track}
	c.mu.Unlock()
	return nil
}

// SetTrackEnabled mutes or resumes an attached local track by swapping the
// sender track, avoiding renegotiation.
func (c *Connection) SetTrackEnabled(kind core.TrackKind, enabled bool) error {
	c.mu.Lock()
	ls, ok := c.senders[kind]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("no local %s track", kind)
	}
	if enabled {
		return ls.sender.ReplaceTrack(ls.track)
	}
	return ls.sender.ReplaceTrack(nil)
}

func (c *Connection) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	c.mu.Lock()
	c.onICE = fn
	c.mu.Unlock()
}

func (c *Connection) OnTrack(fn func(*webrtc.TrackRemote)) {
	c.mu.Lock()
	c.onTrack = fn
	c.mu.Unlock()
}

func (c *Connection) OnDisconnected(fn func()) {
	c.mu.Lock()
	c.onDisconnected = fn
	c.mu.Unlock()
}

func (c *Connection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close stops senders, receivers and the underlying connection. Idempotent.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	for _, tr := range c.pc.GetTransceivers() {
		if tr.Sender() != nil {
			_ = tr.Sender().Stop()
		}
		if tr.Receiver() != nil {
			_ = tr.Receiver().Stop()
		}
	}
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("partner", string(c.partner)).Msg("close error")
	} else {
		log.Info().Str("module", "rtc").Str("partner", string(c.partner)).Msg("closed")
	}
}
