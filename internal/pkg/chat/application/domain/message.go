package chat

import (
	"strings"
	"time"
)

// Message is an immutable, append-only log entry in a conversation.
// IDs are strictly increasing and double as the pagination cursor.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	Sender         User      `db:"-" json:"sender"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// NewMessage validates the parts of a message that do not depend on membership.
func NewMessage(conversationID string, senderID int64, content string) (*Message, error) {
	if conversationID == "" {
		return nil, ErrConversationNotFound
	}
	if senderID <= 0 {
		return nil, ErrInvalidParticipant
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}
	return &Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        trimmed,
	}, nil
}
