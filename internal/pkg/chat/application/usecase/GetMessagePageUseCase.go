package usecase

import (
	"context"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// GetMessagePageInput carries parameters to fetch one page of history.
// Cursor is empty for the newest page. Limit nil means the default.
type GetMessagePageInput struct {
	ConversationID string
	UserID         int64
	Cursor         string
	Limit          *int
}

// MessagePage is a chronological batch of messages.
//
// HasMore is true iff the batch is full, so a page that happens to end
// exactly at the oldest message still reports HasMore; the next fetch is then empty.
type MessagePage struct {
	Messages   []chat.Message `json:"messages"`
	HasMore    bool           `json:"hasMore"`
	NextCursor *string        `json:"nextCursor"`
}

// GetMessagePageUseCase pages backwards through a conversation by message id.
type GetMessagePageUseCase struct {
	Repo         repository.ChatRepository
	DefaultLimit int
	MaxLimit     int
}

func NewGetMessagePageUseCase(repo repository.ChatRepository, defaultLimit, maxLimit int) *GetMessagePageUseCase {
	if maxLimit <= 0 {
		maxLimit = MaxPageLimit
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultPageLimit
	}
	if defaultLimit > maxLimit {
		defaultLimit = maxLimit
	}
	return &GetMessagePageUseCase{Repo: repo, DefaultLimit: defaultLimit, MaxLimit: maxLimit}
}

// Execute requires the caller to be a participant before any message is read.
// Limits above MaxLimit are clamped.
func (uc *GetMessagePageUseCase) Execute(ctx context.Context, in GetMessagePageInput) (*MessagePage, error) {
	limit := uc.DefaultLimit
	if in.Limit != nil {
		if *in.Limit <= 0 {
			return nil, chat.ErrInvalidLimit
		}
		limit = min(*in.Limit, uc.MaxLimit)
	}
	var beforeID int64
	if in.Cursor != "" {
		id, err := chat.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
		beforeID = id
	}

	p, err := uc.Repo.FindParticipant(ctx, in.ConversationID, in.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if p == nil {
		return nil, chat.ErrNotParticipant
	}

	newest, err := uc.Repo.ListMessages(ctx, in.ConversationID, beforeID, limit)
	if err != nil {
		return nil, storeErr(err)
	}

	page := &MessagePage{
		Messages: make([]chat.Message, len(newest)),
		HasMore:  len(newest) == limit,
	}
	for i, m := range newest {
		page.Messages[len(newest)-1-i] = m
	}
	if len(page.Messages) > 0 {
		next := chat.EncodeCursor(page.Messages[0].ID)
		page.NextCursor = &next
	}
	return page, nil
}
