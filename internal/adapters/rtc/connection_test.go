package rtc

import (
	"context"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonutonmoy/chat-client-side/internal/core"
)

func newTestConnection(t *testing.T) *Connection {
	t.Helper()
	c, err := NewConnection(DefaultConfig(), "partner")
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))
	t.Cleanup(c.Close)
	return c
}

func audioTrack(t *testing.T) webrtc.TrackLocal {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus}, "audio", "call")
	require.NoError(t, err)
	return track
}

func TestOfferAnswerNegotiation(t *testing.T) {
	caller := newTestConnection(t)
	callee := newTestConnection(t)

	require.NoError(t, caller.AddLocalTrack(audioTrack(t)))

	offer, err := caller.CreateAndSetOffer()
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)
	assert.False(t, caller.RemoteDescriptionSet())
	assert.False(t, callee.RemoteDescriptionSet())

	answer, err := callee.ApplyOfferAndCreateAnswer(*offer)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	assert.True(t, callee.RemoteDescriptionSet())

	require.NoError(t, caller.ApplyAnswer(*answer))
	assert.True(t, caller.RemoteDescriptionSet())
}

func TestSetTrackEnabledWithoutTrack(t *testing.T) {
	c := newTestConnection(t)
	require.Error(t, c.SetTrackEnabled(core.KindVideo, false))
}

func TestSetTrackEnabledSwapsSenderTrack(t *testing.T) {
	c := newTestConnection(t)
	require.NoError(t, c.AddLocalTrack(audioTrack(t)))

	require.NoError(t, c.SetTrackEnabled(core.KindAudio, false))
	require.NoError(t, c.SetTrackEnabled(core.KindAudio, true))
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := NewConnection(DefaultConfig(), "partner")
	require.NoError(t, err)
	require.NoError(t, c.Start(context.Background()))

	c.Close()
	assert.True(t, c.IsClosed())
	c.Close()
	assert.True(t, c.IsClosed())
}
