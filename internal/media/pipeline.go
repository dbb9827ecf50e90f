// Package media acquires and releases local capture devices. Every session
// start gets a fresh capture; a stream is never reused across sessions.
package media

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// Pipeline implements core.MediaPipeline on top of the platform capture
// backend (pion/mediadevices on linux).
type Pipeline struct{}

func NewPipeline() *Pipeline { return &Pipeline{} }

// Acquire requests audio always and video when asked. There is no graceful
// fallback: a capture failure aborts the in-progress session transition.
func (p *Pipeline) Acquire(ctx context.Context, video bool) (core.LocalStream, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s, err := capture(video)
	if err != nil {
		log.Error().Err(err).Str("module", "media").Bool("video", video).Msg("capture failed")
		return nil, classify(err)
	}
	log.Info().Str("module", "media").Bool("video", video).Msg("capture acquired")
	return s, nil
}

// Release stops every track of s. Safe on nil and on an already-released
// stream.
func (p *Pipeline) Release(s core.LocalStream) {
	if s == nil {
		return
	}
	s.Close()
}

// classify maps backend capture errors to the domain taxonomy.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission denied") || strings.Contains(msg, "not allowed") {
		return domain.ErrPermissionDenied
	}
	return domain.ErrDeviceUnavailable
}
