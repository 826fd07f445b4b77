package chat

import "time"

// Participant captures membership of a user in a conversation.
// Unique per (ConversationID, UserID).
type Participant struct {
	ID             int64     `db:"id" json:"id"`
	ConversationID string    `db:"conversation_id" json:"conversationId"`
	UserID         int64     `db:"user_id" json:"userId"`
	JoinedAt       time.Time `db:"joined_at" json:"joinedAt"`
}
