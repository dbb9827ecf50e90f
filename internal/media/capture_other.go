//go:build !linux || !cgo

package media

import (
	"github.com/pion/webrtc/v4"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// RegisterCodecs falls back to the pion defaults where no capture backend is
// built in.
func RegisterCodecs(me *webrtc.MediaEngine) error {
	return me.RegisterDefaultCodecs()
}

func capture(_ bool) (core.LocalStream, error) {
	return nil, domain.ErrDeviceUnavailable
}
