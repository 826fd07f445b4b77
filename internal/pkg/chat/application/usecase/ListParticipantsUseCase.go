package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// ListParticipantsInput wraps the conversation identifier to fetch its participants.
type ListParticipantsInput struct {
	ConversationID string
	UserID         int64 // requester, must be a participant
}

// ListParticipantsUseCase returns the participants of a conversation to one of its members.
type ListParticipantsUseCase struct {
	Repo repository.ChatRepository
}

func NewListParticipantsUseCase(repo repository.ChatRepository) *ListParticipantsUseCase {
	return &ListParticipantsUseCase{Repo: repo}
}

func (uc *ListParticipantsUseCase) Execute(ctx context.Context, in ListParticipantsInput) ([]chat.Participant, error) {
	var participants []chat.Participant
	err := uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		var err error
		participants, err = tx.ListParticipants(ctx, in.ConversationID)
		if err != nil {
			return err
		}
		if !containsUser(participants, in.UserID) {
			return chat.ErrNotParticipant
		}
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return participants, nil
}

func containsUser(participants []chat.Participant, userID int64) bool {
	for _, p := range participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}
