// Package call drives one call attempt at a time: offer/answer/ICE exchange,
// session state transitions and media lifecycle.
package call

import (
	"github.com/pion/webrtc/v4"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// session is the mutable record of one call attempt. It is owned by the
// Machine and transitioned only through defined events, never from the
// outside.
type session struct {
	partner domain.UserID
	state   domain.CallState
	isVideo bool

	// inbound attempts only
	caller domain.Caller
	offer  *webrtc.SessionDescription

	local core.LocalStream
	mc    core.MediaConnection

	// remote candidates received before the remote description was applied,
	// in arrival order. Drained immediately after the description is set,
	// never before.
	pending []webrtc.ICECandidateInit

	audioOn     bool
	videoOn     bool
	endNotified bool
}

func newSession(partner domain.UserID, isVideo bool) *session {
	return &session{
		partner: partner,
		isVideo: isVideo,
		audioOn: true,
		videoOn: true,
	}
}

// dialing reports whether the session is an outbound attempt still waiting
// for the remote answer.
func (s *session) dialing() bool {
	return s.state == domain.CallCalling || s.state == domain.CallRinging
}

// Snapshot is a read-only view of the current session for APIs.
type Snapshot struct {
	State        domain.CallState `json:"state"`
	PartnerID    domain.UserID    `json:"partnerId,omitempty"`
	IsVideo      bool             `json:"isVideo"`
	AudioEnabled bool             `json:"audioEnabled"`
	VideoEnabled bool             `json:"videoEnabled"`
	Caller       *domain.Caller   `json:"caller,omitempty"`
}
