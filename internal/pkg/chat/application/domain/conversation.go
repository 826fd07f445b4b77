package chat

import "time"

// Conversation is a direct (two-party) or group thread.
// IsGroup is fixed at creation: true iff more than one user was invited.
type Conversation struct {
	ID        string    `db:"id" json:"id"`
	IsGroup   bool      `db:"is_group" json:"isGroup"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
