package chat

import "time"

// ConversationSummary is one row of a user's conversation list.
type ConversationSummary struct {
	ConversationID string       `json:"conversationId"`
	IsGroup        bool         `json:"isGroup"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	LastMessage    *LastMessage `json:"message"`
	Participants   []User       `json:"participants"`
}

// LastMessage is the most recent message of a conversation as shown in the list.
type LastMessage struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Sender    User      `json:"sender"`
}
