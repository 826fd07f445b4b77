package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// AddParticipantInput asks ActorID to add UserID to a group conversation.
type AddParticipantInput struct {
	ConversationID string
	ActorID        int64
	UserID         int64
}

// AddParticipantOutput lists the participants after the addition.
type AddParticipantOutput struct {
	Participant  *chat.Participant
	Participants []int64
}

// AddParticipantUseCase admits a user into a group conversation.
// Concurrent additions of the same user end with exactly one row; the loser
// gets chat.ErrAlreadyParticipant.
type AddParticipantUseCase struct {
	Repo  repository.ChatRepository
	Users *LookupUserUseCase
}

func NewAddParticipantUseCase(repo repository.ChatRepository, users *LookupUserUseCase) *AddParticipantUseCase {
	return &AddParticipantUseCase{Repo: repo, Users: users}
}

func (uc *AddParticipantUseCase) Execute(ctx context.Context, in AddParticipantInput) (*AddParticipantOutput, error) {
	if in.UserID <= 0 {
		return nil, chat.ErrInvalidParticipant
	}
	if uc.Users != nil {
		if _, err := uc.Users.Execute(ctx, LookupUserInput{UserID: in.UserID}); err != nil {
			return nil, err
		}
	}

	var out AddParticipantOutput
	err := uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, err := loadChat(ctx, tx, in.ConversationID)
		if err != nil {
			return err
		}
		if err := c.AdmitParticipant(in.ActorID, in.UserID); err != nil {
			return err
		}
		p, err := tx.CreateParticipant(ctx, in.ConversationID, in.UserID)
		if err != nil {
			return err
		}
		out.Participant = p
		out.Participants = append(c.ParticipantIDs(), in.UserID)
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}
