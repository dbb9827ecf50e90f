package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUserValidation(t *testing.T) {
	u, err := NewUser("u1", "Alice")
	require.NoError(t, err)
	assert.Equal(t, UserID("u1"), u.ID)
	assert.Equal(t, "Alice", u.FirstName)

	_, err = NewUser("u1", "")
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = NewUser("u1", strings.Repeat("x", MaxNameLen+1))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestCallStateActive(t *testing.T) {
	active := []CallState{CallCalling, CallRinging, CallIncoming, CallOngoing}
	for _, s := range active {
		assert.True(t, s.Active(), "state %s", s)
	}
	assert.False(t, CallIdle.Active())
	assert.False(t, CallEnding.Active())
}

func TestMessageTypeValid(t *testing.T) {
	for _, mt := range []MessageType{MessageText, MessageImage, MessageFile, MessageAudio} {
		assert.True(t, mt.Valid(), "type %s", mt)
	}
	assert.False(t, MessageType("video").Valid())
	assert.False(t, MessageType("").Valid())
}

func TestMessageTypeNeedsUpload(t *testing.T) {
	assert.False(t, MessageText.NeedsUpload())
	assert.True(t, MessageImage.NeedsUpload())
	assert.True(t, MessageFile.NeedsUpload())
	assert.True(t, MessageAudio.NeedsUpload())
}
