package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

func TestClassifyCaptureErrors(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{errors.New("v4l2: permission denied"), domain.ErrPermissionDenied},
		{errors.New("operation Not Allowed by policy"), domain.ErrPermissionDenied},
		{errors.New("no such device"), domain.ErrDeviceUnavailable},
		{errors.New("failed to open /dev/video0"), domain.ErrDeviceUnavailable},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, classify(tc.err), tc.want, "input: %v", tc.err)
	}
}

func TestReleaseNilStream(t *testing.T) {
	NewPipeline().Release(nil)
}

func TestLogRingerTransitions(t *testing.T) {
	r := NewLogRinger()
	assert.Empty(t, r.Playing())

	r.StartOutgoing()
	assert.Equal(t, "outgoing", r.Playing())

	r.StartIncoming()
	assert.Equal(t, "incoming", r.Playing())

	r.Stop()
	assert.Empty(t, r.Playing())
	r.Stop()
	assert.Empty(t, r.Playing())
}
