package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

type DeleteConversationInput struct {
	ConversationID string
	ActorID        int64
}

// DeleteConversationOutput lists the participants the conversation had.
type DeleteConversationOutput struct {
	FormerParticipants []int64
}

// DeleteConversationUseCase removes a conversation with its participants and
// messages. Any participant may delete it.
type DeleteConversationUseCase struct {
	Repo repository.ChatRepository
}

func NewDeleteConversationUseCase(repo repository.ChatRepository) *DeleteConversationUseCase {
	return &DeleteConversationUseCase{Repo: repo}
}

func (uc *DeleteConversationUseCase) Execute(ctx context.Context, in DeleteConversationInput) (*DeleteConversationOutput, error) {
	var out DeleteConversationOutput
	err := uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, err := loadChat(ctx, tx, in.ConversationID)
		if err != nil {
			return err
		}
		if !c.HasParticipant(in.ActorID) {
			return chat.ErrNotParticipant
		}
		if err := tx.DeleteConversation(ctx, in.ConversationID); err != nil {
			return err
		}
		out.FormerParticipants = c.ParticipantIDs()
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}
