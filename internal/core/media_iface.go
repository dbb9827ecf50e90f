package core

import (
	"context"

	"github.com/pion/webrtc/v4"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

type TrackKind string

const (
	KindAudio TrackKind = "audio"
	KindVideo TrackKind = "video"
)

// LocalStream is one local capture, created fresh for a single session and
// never reused across two sessions.
type LocalStream interface {
	// Has reports whether the capture produced a track of the given kind.
	Has(kind TrackKind) bool
	// Tracks returns the capture tracks ready to be attached to a peer connection.
	Tracks() []webrtc.TrackLocal
	// Close stops every track. Idempotent.
	Close()
}

// MediaPipeline acquires and releases local capture devices.
type MediaPipeline interface {
	// Acquire requests audio always and video conditionally. Failures are
	// reported as domain.ErrPermissionDenied or domain.ErrDeviceUnavailable.
	Acquire(ctx context.Context, video bool) (LocalStream, error)
	// Release stops the stream's tracks. Safe to call on nil or an
	// already-released stream.
	Release(s LocalStream)
}

// MediaConnection is one live peer connection. Exactly one instance per
// session, exclusively owned by the call state machine.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close stops all sender/receiver tracks and the underlying connection.
	Close()
	IsClosed() bool
	// AddICECandidate applies a remote ICE candidate. Must not be called
	// before the remote description is set.
	AddICECandidate(webrtc.ICECandidateInit) error
	// RemoteDescriptionSet reports whether a remote description has been applied.
	RemoteDescriptionSet() bool
	CreateAndSetOffer() (*webrtc.SessionDescription, error)
	ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	ApplyAnswer(answer webrtc.SessionDescription) error
	// AddLocalTrack attaches a capture track to the connection.
	AddLocalTrack(track webrtc.TrackLocal) error
	// SetTrackEnabled toggles an attached track without renegotiation.
	SetTrackEnabled(kind TrackKind, enabled bool) error
	// OnICECandidate sets a callback for newly gathered local ICE candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback invoked when a remote track arrives.
	OnTrack(func(track *webrtc.TrackRemote))
	// OnDisconnected sets a callback fired once when the connection reaches
	// disconnected, failed or closed.
	OnDisconnected(func())
}

// PeerFactory creates the media connection for one session with the given
// remote partner.
type PeerFactory func(partner domain.UserID) (MediaConnection, error)
