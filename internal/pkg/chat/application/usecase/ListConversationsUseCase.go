package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

type ListConversationsInput struct {
	UserID int64
}

// ListConversationsUseCase is the Conversation Directory: a read-through
// projection of the user's conversations, most recently updated first.
type ListConversationsUseCase struct {
	Repo repository.DirectoryRepository
}

func NewListConversationsUseCase(repo repository.DirectoryRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, in ListConversationsInput) ([]chat.ConversationSummary, error) {
	if in.UserID <= 0 {
		return nil, chat.ErrUnauthenticated
	}
	summaries, err := uc.Repo.ListUserConversations(ctx, in.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if summaries == nil {
		summaries = []chat.ConversationSummary{}
	}
	return summaries, nil
}
