package core

import (
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

// Signaling event surface. Names and payload shapes are fixed by the
// coordination server.
const (
	EvJoin         = "join"
	EvJoinChatRoom = "join_chat_room"

	EvSendMessage        = "send_message"
	EvReceiveMessage     = "receive_message"
	EvMessageSeen        = "message_seen"
	EvMessageSeenReceipt = "message_seen_receipt"
	EvTypingStart        = "typing_start"
	EvTypingStop         = "typing_stop"
	EvPartnerTyping      = "partner_typing"

	EvCallUser     = "call_user"
	EvReceiveCall  = "receive_call"
	EvAnswerCall   = "answer_call"
	EvCallAnswered = "call_answered"
	EvICECandidate = "ice_candidate"
	EvRejectCall   = "reject_call"
	EvCallRejected = "call_rejected"
	EvEndCall      = "end_call"
	EvCallEnded    = "call_ended"

	EvUserStatus      = "user_status"
	EvNewNotification = "new_notification"
	EvError           = "error"
)

type JoinRoomPayload struct {
	User1ID domain.UserID `json:"user1Id"`
	User2ID domain.UserID `json:"user2Id"`
}

type SendMessagePayload struct {
	SenderID   domain.UserID      `json:"senderId"`
	ReceiverID domain.UserID      `json:"receiverId"`
	Content    string             `json:"content"`
	CreatedAt  time.Time          `json:"createdAt"`
	Type       domain.MessageType `json:"type"`
	FileName   string             `json:"fileName,omitempty"`
}

type CallUserPayload struct {
	CalleeID domain.UserID             `json:"calleeId"`
	Offer    webrtc.SessionDescription `json:"offer"`
	Caller   domain.Caller             `json:"caller"`
	IsVideo  bool                      `json:"isVideo"`
}

type ReceiveCallPayload struct {
	Offer   webrtc.SessionDescription `json:"offer"`
	Caller  domain.Caller             `json:"caller"`
	IsVideo bool                      `json:"isVideo"`
}

type AnswerCallPayload struct {
	CallerID domain.UserID             `json:"callerId"`
	Answer   webrtc.SessionDescription `json:"answer"`
}

type CallAnsweredPayload struct {
	Answer webrtc.SessionDescription `json:"answer"`
}

type ICECandidatePayload struct {
	TargetUserID domain.UserID           `json:"targetUserId,omitempty"`
	Candidate    webrtc.ICECandidateInit `json:"candidate"`
}

type RejectCallPayload struct {
	CallerID domain.UserID `json:"callerId"`
}

type EndCallPayload struct {
	PartnerID domain.UserID `json:"partnerId"`
}

type TypingPayload struct {
	ReceiverID domain.UserID `json:"receiverId"`
}

type PartnerTypingPayload struct {
	SenderID domain.UserID `json:"senderId"`
	IsTyping bool          `json:"isTyping"`
}

type MessageSeenPayload struct {
	MessageID string        `json:"messageId"`
	SenderID  domain.UserID `json:"senderId"`
}

type SeenReceiptPayload struct {
	MessageID string        `json:"messageId"`
	SeenBy    domain.UserID `json:"seenBy"`
}

type UserStatusPayload struct {
	UserID domain.UserID         `json:"userId"`
	Status domain.PresenceStatus `json:"status"`
}

type NotificationPayload struct {
	SenderID domain.UserID `json:"senderId"`
	Sender   *domain.User  `json:"sender,omitempty"`
	Message  string        `json:"message,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}
