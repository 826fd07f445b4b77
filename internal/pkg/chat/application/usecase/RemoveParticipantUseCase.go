package usecase

import (
	"context"

	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// RemoveParticipantInput asks ActorID to remove UserID from a group conversation.
// ActorID may equal UserID to leave.
type RemoveParticipantInput struct {
	ConversationID string
	ActorID        int64
	UserID         int64
}

// RemoveParticipantOutput lists who is left.
type RemoveParticipantOutput struct {
	Remaining []int64
}

type RemoveParticipantUseCase struct {
	Repo repository.ChatRepository
}

func NewRemoveParticipantUseCase(repo repository.ChatRepository) *RemoveParticipantUseCase {
	return &RemoveParticipantUseCase{Repo: repo}
}

func (uc *RemoveParticipantUseCase) Execute(ctx context.Context, in RemoveParticipantInput) (*RemoveParticipantOutput, error) {
	var out RemoveParticipantOutput
	err := uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, err := loadChat(ctx, tx, in.ConversationID)
		if err != nil {
			return err
		}
		if err := c.DismissParticipant(in.ActorID, in.UserID); err != nil {
			return err
		}
		if err := tx.DeleteParticipant(ctx, in.ConversationID, in.UserID); err != nil {
			return err
		}
		out.Remaining = make([]int64, 0, len(c.Participants)-1)
		for _, id := range c.ParticipantIDs() {
			if id != in.UserID {
				out.Remaining = append(out.Remaining, id)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}
