package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrUnauthenticated      = errors.New("chat: missing or invalid credential")
	ErrNotParticipant       = errors.New("chat: user is not a participant in this conversation")
	ErrConversationNotFound = errors.New("chat: conversation not found")
	ErrUserNotFound         = errors.New("chat: user not found")
	ErrAlreadyParticipant   = errors.New("chat: user is already a participant in this conversation")
	ErrNotGroupConversation = errors.New("chat: membership of a direct conversation cannot change")
	ErrEmptyContent         = errors.New("chat: message content is empty")
	ErrInvalidCursor        = errors.New("chat: invalid cursor format")
	ErrInvalidLimit         = errors.New("chat: limit must be a positive integer")
	ErrNoParticipants       = errors.New("chat: at least one participant is required")
	ErrInvalidParticipant   = errors.New("chat: invalid participant id")
)

// Chat is the domain aggregate for a conversation and its membership rules.
//
// The application layer hydrates it with the conversation row and its current
// participants (inside the same transaction that will apply the change) before
// invoking its behaviors. Persistence stays outside the domain.
type Chat struct {
	Conversation Conversation
	Participants map[int64]Participant // keyed by userID
}

// NewChat builds an aggregate from a conversation and its participant rows.
func NewChat(conv Conversation, participants []Participant) *Chat {
	byUser := make(map[int64]Participant, len(participants))
	for _, p := range participants {
		byUser[p.UserID] = p
	}
	return &Chat{Conversation: conv, Participants: byUser}
}

// HasParticipant tells whether userID is part of this chat.
func (c *Chat) HasParticipant(userID int64) bool {
	if c == nil || c.Participants == nil {
		return false
	}
	_, ok := c.Participants[userID]
	return ok
}

// ParticipantIDs returns the user ids of all current participants.
func (c *Chat) ParticipantIDs() []int64 {
	ids := make([]int64, 0, len(c.Participants))
	for id := range c.Participants {
		ids = append(ids, id)
	}
	return ids
}

// PostMessage applies domain rules and returns a validated message ready to persist.
//
// Validations:
// - Content must be non-empty after trimming
// - Sender must be a current participant
//
// If now is zero the current UTC time is used for CreatedAt.
func (c *Chat) PostMessage(senderID int64, content string, now time.Time) (*Message, error) {
	msg, err := NewMessage(c.Conversation.ID, senderID, content)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(senderID) {
		return nil, ErrNotParticipant
	}
	if now.IsZero() {
		now = time.Now()
	}
	msg.CreatedAt = now.UTC()
	return msg, nil
}

// AdmitParticipant checks that actorID may add userID to the chat.
func (c *Chat) AdmitParticipant(actorID, userID int64) error {
	if userID <= 0 {
		return ErrInvalidParticipant
	}
	if !c.HasParticipant(actorID) {
		return ErrNotParticipant
	}
	if !c.Conversation.IsGroup {
		return ErrNotGroupConversation
	}
	if c.HasParticipant(userID) {
		return ErrAlreadyParticipant
	}
	return nil
}

// DismissParticipant checks that actorID may remove userID from the chat.
// A participant may remove themselves.
func (c *Chat) DismissParticipant(actorID, userID int64) error {
	if !c.HasParticipant(actorID) {
		return ErrNotParticipant
	}
	if !c.Conversation.IsGroup {
		return ErrNotGroupConversation
	}
	if !c.HasParticipant(userID) {
		return ErrUserNotFound
	}
	return nil
}

// NormalizeInvitees de-duplicates invited ids and rejects the creator and
// non-positive ids. The result keeps the first-seen order.
func NormalizeInvitees(creatorID int64, invited []int64) ([]int64, error) {
	if len(invited) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[int64]struct{}, len(invited))
	out := make([]int64, 0, len(invited))
	for _, id := range invited {
		if id <= 0 || id == creatorID {
			return nil, ErrInvalidParticipant
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
