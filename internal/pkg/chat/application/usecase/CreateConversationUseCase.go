package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// CreateConversationInput carries the required data to open a new conversation.
// The creator is always added; ParticipantIDs lists the invited users.
type CreateConversationInput struct {
	CreatorID      int64
	ParticipantIDs []int64
}

// CreateConversationOutput describes the opened conversation.
// Reused is true when an existing direct conversation was returned.
type CreateConversationOutput struct {
	Conversation *chat.Conversation
	Participants []int64
	Reused       bool
}

// CreateConversationUseCase handles creation of a new conversation and its participants
// Hexagonal: depends on repository port only
// One class per use case (own file)
type CreateConversationUseCase struct {
	Repo  repository.ChatRepository
	Users *LookupUserUseCase
}

func NewCreateConversationUseCase(repo repository.ChatRepository, users *LookupUserUseCase) *CreateConversationUseCase {
	return &CreateConversationUseCase{Repo: repo, Users: users}
}

// Execute persists a conversation and registers participants atomically.
// A single invitee reuses an existing direct conversation with the creator.
func (uc *CreateConversationUseCase) Execute(ctx context.Context, in CreateConversationInput) (*CreateConversationOutput, error) {
	invitees, err := prepareInvitees(ctx, uc.Users, in.CreatorID, in.ParticipantIDs)
	if err != nil {
		return nil, err
	}

	var out CreateConversationOutput
	err = uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, reused, err := openConversation(ctx, tx, in.CreatorID, invitees)
		if err != nil {
			return err
		}
		out.Conversation = &c.Conversation
		out.Participants = c.ParticipantIDs()
		out.Reused = reused
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}

func prepareInvitees(ctx context.Context, users *LookupUserUseCase, creatorID int64, invited []int64) ([]int64, error) {
	if creatorID <= 0 {
		return nil, chat.ErrUnauthenticated
	}
	invitees, err := chat.NormalizeInvitees(creatorID, invited)
	if err != nil {
		return nil, err
	}
	if users != nil {
		if err := users.ensureUsers(ctx, invitees); err != nil {
			return nil, err
		}
	}
	return invitees, nil
}

// openConversation returns the conversation the creator and invitees share,
// creating it inside tx when needed.
func openConversation(ctx context.Context, tx repository.ChatRepository, creatorID int64, invitees []int64) (*chat.Chat, bool, error) {
	if len(invitees) == 1 {
		existing, err := tx.FindDirectConversation(ctx, creatorID, invitees[0])
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			participants, err := tx.ListParticipants(ctx, existing.ID)
			if err != nil {
				return nil, false, err
			}
			return chat.NewChat(*existing, participants), true, nil
		}
	}

	conv, err := tx.CreateConversation(ctx, len(invitees) > 1)
	if err != nil {
		return nil, false, err
	}
	participants := make([]chat.Participant, 0, len(invitees)+1)
	for _, uid := range append([]int64{creatorID}, invitees...) {
		p, err := tx.CreateParticipant(ctx, conv.ID, uid)
		if err != nil {
			return nil, false, err
		}
		participants = append(participants, *p)
	}
	return chat.NewChat(*conv, participants), false, nil
}
