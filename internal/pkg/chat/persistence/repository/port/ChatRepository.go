package repository

import (
	"context"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
)

// MembershipRepository is the authoritative conversation <-> participant mapping.
type MembershipRepository interface {
	// FindParticipant returns (nil, nil) when userID is not a participant or the
	// conversation does not exist. Inside InTx the row is share-locked until commit.
	FindParticipant(ctx context.Context, conversationID string, userID int64) (*chat.Participant, error)
	// ListParticipants returns participants ordered by join time. Share-locked inside InTx.
	ListParticipants(ctx context.Context, conversationID string) ([]chat.Participant, error)
	// CreateParticipant returns chat.ErrAlreadyParticipant on a duplicate (conversation, user).
	CreateParticipant(ctx context.Context, conversationID string, userID int64) (*chat.Participant, error)
	// DeleteParticipant returns chat.ErrUserNotFound when no row was removed.
	DeleteParticipant(ctx context.Context, conversationID string, userID int64) error

	// FindConversation returns (nil, nil) when absent.
	FindConversation(ctx context.Context, conversationID string) (*chat.Conversation, error)
	CreateConversation(ctx context.Context, isGroup bool) (*chat.Conversation, error)
	// DeleteConversation removes the conversation with its participants and messages.
	DeleteConversation(ctx context.Context, conversationID string) error
	// FindDirectConversation returns the non-group conversation shared by both users, or (nil, nil).
	FindDirectConversation(ctx context.Context, userA, userB int64) (*chat.Conversation, error)
	// TouchConversation moves updatedAt forward to at (never backwards).
	TouchConversation(ctx context.Context, conversationID string, at time.Time) error
}

// MessageRepository is the append-only message log.
type MessageRepository interface {
	// CreateMessage appends m and returns the stored row with ID, CreatedAt and Sender filled.
	CreateMessage(ctx context.Context, m chat.Message) (*chat.Message, error)
	// ListMessages returns up to limit messages newest-first. beforeID == 0 means no upper bound,
	// otherwise only messages with id < beforeID are returned.
	ListMessages(ctx context.Context, conversationID string, beforeID int64, limit int) ([]chat.Message, error)
}

// DirectoryRepository projects per-user conversation lists.
type DirectoryRepository interface {
	// ListUserConversations returns summaries ordered by conversation updatedAt descending.
	ListUserConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error)
}

// UserRepository resolves user identities.
type UserRepository interface {
	// FindUser returns (nil, nil) when the user does not exist.
	FindUser(ctx context.Context, userID int64) (*chat.User, error)
}

// ChatRepository defines persistence operations for the chat domain.
type ChatRepository interface {
	MembershipRepository
	MessageRepository
	DirectoryRepository
	UserRepository

	// InTx runs fn against a transactional view of the repository. The transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx ChatRepository) error) error
}
