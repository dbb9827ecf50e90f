package presence

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

type recordingNotifier struct {
	mu       sync.Mutex
	toasts   []string
	presence map[domain.UserID]domain.PresenceStatus
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{presence: make(map[domain.UserID]domain.PresenceStatus)}
}

func (n *recordingNotifier) CallStateChanged(domain.UserID, domain.CallState) {}

func (n *recordingNotifier) IncomingCall(domain.Caller, bool) {}

func (n *recordingNotifier) RemoteTrack(core.TrackKind) {}

func (n *recordingNotifier) MessageAppended(domain.Message) {}

func (n *recordingNotifier) MessageUpdated(domain.Message) {}

func (n *recordingNotifier) PartnerTyping(domain.UserID, bool) {}

func (n *recordingNotifier) PresenceChanged(user domain.UserID, status domain.PresenceStatus) {
	n.mu.Lock()
	n.presence[user] = status
	n.mu.Unlock()
}

func (n *recordingNotifier) Toast(text string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, text)
	n.mu.Unlock()
}

func (n *recordingNotifier) Failure(error) {}

func TestNotificationSuppressedForActiveView(t *testing.T) {
	notify := newRecordingNotifier()
	tr := NewTracker(notify)
	tr.SetActiveView("bob")

	tr.HandleNotification(core.NotificationPayload{SenderID: "bob"})
	assert.Empty(t, notify.toasts)

	tr.HandleNotification(core.NotificationPayload{
		SenderID: "carol",
		Sender:   &domain.User{ID: "carol", FirstName: "Carol"},
	})
	require.Len(t, notify.toasts, 1)
	assert.Equal(t, "New message from Carol", notify.toasts[0])
}

func TestNotificationAfterViewClosed(t *testing.T) {
	notify := newRecordingNotifier()
	tr := NewTracker(notify)
	tr.SetActiveView("bob")
	tr.SetActiveView("")

	tr.HandleNotification(core.NotificationPayload{SenderID: "bob"})
	require.Len(t, notify.toasts, 1)
	assert.Equal(t, "New message from a user", notify.toasts[0])
}

func TestUserStatusTracking(t *testing.T) {
	notify := newRecordingNotifier()
	tr := NewTracker(notify)

	assert.Equal(t, domain.StatusOffline, tr.Status("bob"))

	tr.HandleUserStatus(core.UserStatusPayload{UserID: "bob", Status: domain.StatusOnline})
	assert.Equal(t, domain.StatusOnline, tr.Status("bob"))
	assert.Equal(t, domain.StatusOnline, notify.presence["bob"])
	assert.Equal(t, []domain.UserID{"bob"}, tr.Online())

	tr.HandleUserStatus(core.UserStatusPayload{UserID: "bob", Status: domain.StatusOffline})
	assert.Equal(t, domain.StatusOffline, tr.Status("bob"))
	assert.Empty(t, tr.Online())
}

func TestUnknownStatusIgnored(t *testing.T) {
	notify := newRecordingNotifier()
	tr := NewTracker(notify)

	tr.HandleUserStatus(core.UserStatusPayload{UserID: "bob", Status: "away"})

	assert.Equal(t, domain.StatusOffline, tr.Status("bob"))
	assert.Empty(t, notify.presence)
}
