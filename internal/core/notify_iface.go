package core

import "github.com/tonutonmoy/chat-client-side/internal/domain"

// Notifier is the UI-facing callback sink. Implementations must be cheap and
// non-blocking; they run on dispatch and control goroutines.
type Notifier interface {
	CallStateChanged(partner domain.UserID, state domain.CallState)
	IncomingCall(caller domain.Caller, isVideo bool)
	RemoteTrack(kind TrackKind)
	MessageAppended(msg domain.Message)
	MessageUpdated(msg domain.Message)
	PartnerTyping(partner domain.UserID, typing bool)
	PresenceChanged(user domain.UserID, status domain.PresenceStatus)
	Toast(text string)
	Failure(err error)
}

// Ringer plays the local call-alert tones. Stop cancels any in-flight tone
// and is safe to call when nothing is playing.
type Ringer interface {
	StartOutgoing()
	StartIncoming()
	Stop()
}
