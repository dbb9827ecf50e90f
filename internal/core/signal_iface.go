package core

import "github.com/tonutonmoy/chat-client-side/internal/domain"

// Frame is the raw JSON data field of one signaling event.
type Frame []byte

// Handler consumes one inbound event. Handlers run to completion, one at a
// time, on the channel's dispatch goroutine.
type Handler func(data Frame)

// Subscription is a registration token. Cancel is idempotent and safe to
// call on a token whose channel is already closed.
type Subscription interface {
	Cancel()
}

// SignalChannel abstracts the long-lived duplex event channel to the
// coordination server. Owned by the adapter; the adapter must Close() it.
// Publish is fire-and-forget: delivery is not acknowledged, transport
// failures are surfaced through the error event, never thrown synchronously
// into subscribers.
type SignalChannel interface {
	Publish(event string, payload any) error
	Subscribe(event string, h Handler) Subscription
	Announce(self domain.UserID) error
	JoinRoom(user1, user2 domain.UserID) error
	Close()
}
