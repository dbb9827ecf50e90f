package media

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// LogRinger implements core.Ringer by logging tone transitions. Platforms
// with an audio sink can replace it; the call machine only depends on the
// interface.
type LogRinger struct {
	mu      sync.Mutex
	playing string
}

func NewLogRinger() *LogRinger { return &LogRinger{} }

func (r *LogRinger) StartOutgoing() { r.start("outgoing") }
func (r *LogRinger) StartIncoming() { r.start("incoming") }

func (r *LogRinger) start(tone string) {
	r.mu.Lock()
	r.playing = tone
	r.mu.Unlock()
	log.Info().Str("module", "media").Str("tone", tone).Msg("ring tone started")
}

// Stop cancels any in-flight tone. Safe when nothing is playing.
func (r *LogRinger) Stop() {
	r.mu.Lock()
	tone := r.playing
	r.playing = ""
	r.mu.Unlock()
	if tone != "" {
		log.Info().Str("module", "media").Str("tone", tone).Msg("ring tone stopped")
	}
}

// Playing reports the currently sounding tone, empty when silent.
func (r *LogRinger) Playing() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing
}
