package httpapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

func TestUIStateStartsIdle(t *testing.T) {
	view := NewUIState().View()
	assert.Equal(t, domain.CallIdle, view.CallState)
	assert.Nil(t, view.Incoming)
	assert.Empty(t, view.Toasts)
}

func TestIdleResetsCallDerivedState(t *testing.T) {
	s := NewUIState()
	s.IncomingCall(domain.Caller{ID: "bob", FirstName: "Bob"}, true)
	s.CallStateChanged("bob", domain.CallIncoming)
	s.PartnerTyping("bob", true)

	view := s.View()
	require.NotNil(t, view.Incoming)
	assert.Equal(t, domain.UserID("bob"), view.Incoming.ID)
	assert.True(t, view.IncomingVideo)
	assert.True(t, view.PartnerTyping)

	s.CallStateChanged("bob", domain.CallIdle)

	view = s.View()
	assert.Equal(t, domain.CallIdle, view.CallState)
	assert.Nil(t, view.Incoming)
	assert.False(t, view.PartnerTyping)
}

func TestToastRingIsBounded(t *testing.T) {
	s := NewUIState()
	for i := 0; i < maxToasts+10; i++ {
		s.Toast(fmt.Sprintf("toast %d", i))
	}

	toasts := s.View().Toasts
	require.Len(t, toasts, maxToasts)
	assert.Equal(t, fmt.Sprintf("toast %d", maxToasts+9), toasts[len(toasts)-1].Text)
	assert.NotEmpty(t, toasts[0].ID)
}

func TestFailureKeepsLastError(t *testing.T) {
	s := NewUIState()
	s.Failure(errors.New("first"))
	s.Failure(errors.New("second"))
	assert.Equal(t, "second", s.View().LastError)
}
