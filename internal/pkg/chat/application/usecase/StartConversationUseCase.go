package usecase

import (
	"context"
	"strings"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// StartConversationInput opens a conversation with a first message.
type StartConversationInput struct {
	CreatorID      int64
	ParticipantIDs []int64
	Content        string
}

// StartConversationOutput is the conversation, its first message and the
// participant ids to notify.
type StartConversationOutput struct {
	Conversation *chat.Conversation
	Message      *chat.Message
	Participants []int64
	Reused       bool
}

// StartConversationUseCase creates (or reuses) a conversation and appends the
// first message in a single transaction. Nothing is left behind on failure.
type StartConversationUseCase struct {
	Repo  repository.ChatRepository
	Users *LookupUserUseCase
	Now   func() time.Time
}

func NewStartConversationUseCase(repo repository.ChatRepository, users *LookupUserUseCase) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo, Users: users, Now: time.Now}
}

func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (*StartConversationOutput, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, chat.ErrEmptyContent
	}
	invitees, err := prepareInvitees(ctx, uc.Users, in.CreatorID, in.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}

	var out StartConversationOutput
	err = uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, reused, err := openConversation(ctx, tx, in.CreatorID, invitees)
		if err != nil {
			return err
		}
		msg, err := appendMessage(ctx, tx, c, in.CreatorID, in.Content, now())
		if err != nil {
			return err
		}
		conv := c.Conversation
		if msg.CreatedAt.After(conv.UpdatedAt) {
			conv.UpdatedAt = msg.CreatedAt
		}
		out.Conversation = &conv
		out.Message = msg
		out.Participants = c.ParticipantIDs()
		out.Reused = reused
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}

// ExistingDirect returns the id of the direct conversation Execute would
// reuse for these participants, or "" when it would create one.
func (uc *StartConversationUseCase) ExistingDirect(ctx context.Context, creatorID int64, participantIDs []int64) (string, error) {
	invitees, err := chat.NormalizeInvitees(creatorID, participantIDs)
	if err != nil || len(invitees) != 1 {
		return "", nil
	}
	conv, err := uc.Repo.FindDirectConversation(ctx, creatorID, invitees[0])
	if err != nil {
		return "", storeErr(err)
	}
	if conv == nil {
		return "", nil
	}
	return conv.ID, nil
}
