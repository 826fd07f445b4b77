package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// JoinConversationInput validates a request to attach a user session to a conversation.
type JoinConversationInput struct {
	ConversationID string
	UserID         int64
}

// JoinConversationUseCase ensures the user belongs to the conversation before joining the realtime room.
// A missing conversation is reported as ErrNotParticipant so non-members cannot learn which ids exist.
type JoinConversationUseCase struct {
	Repo repository.MembershipRepository
}

func NewJoinConversationUseCase(repo repository.MembershipRepository) *JoinConversationUseCase {
	return &JoinConversationUseCase{Repo: repo}
}

func (uc *JoinConversationUseCase) Execute(ctx context.Context, in JoinConversationInput) error {
	if in.ConversationID == "" || in.UserID <= 0 {
		return chat.ErrNotParticipant
	}

	p, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return storeErr(err)
	}
	if p == nil {
		return chat.ErrNotParticipant
	}
	return nil
}
