package domain

import "time"

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
	MessageAudio MessageType = "audio"
)

// Message is one sent or received chat item. ID may be empty until the
// server-confirmed echo arrives; isSeen flips false→true exactly once.
type Message struct {
	ID         string      `json:"id,omitempty"`
	SenderID   UserID      `json:"senderId"`
	ReceiverID UserID      `json:"receiverId"`
	Content    string      `json:"content"`
	Type       MessageType `json:"type"`
	FileName   string      `json:"fileName,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	IsSeen     bool        `json:"isSeen"`
}

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageFile, MessageAudio:
		return true
	}
	return false
}

// NeedsUpload reports whether this message type carries uploaded content
// rather than inline text.
func (t MessageType) NeedsUpload() bool {
	return t == MessageImage || t == MessageFile || t == MessageAudio
}
