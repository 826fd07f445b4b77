package usecase

import (
	"context"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message
type SendMessageInput struct {
	ConversationID string
	SenderID       int64
	Content        string
}

// SendMessageOutput is the persisted message plus the participant ids that
// were members when it was appended, for fan-out.
type SendMessageOutput struct {
	Message      *chat.Message
	Participants []int64
}

// SendMessageUseCase handles the SendMessage application service
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type SendMessageUseCase struct {
	Repo repository.ChatRepository
	Now  func() time.Time
}

func NewSendMessageUseCase(repo repository.ChatRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Now: time.Now}
}

// Execute checks membership and appends the message in one transaction, so the
// sender cannot be removed between the check and the insert.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*SendMessageOutput, error) {
	if _, err := chat.NewMessage(in.ConversationID, in.SenderID, in.Content); err != nil {
		return nil, err
	}

	var out SendMessageOutput
	err := uc.Repo.InTx(ctx, func(tx repository.ChatRepository) error {
		c, err := loadChat(ctx, tx, in.ConversationID)
		if err != nil {
			return err
		}
		msg, err := appendMessage(ctx, tx, c, in.SenderID, in.Content, uc.now())
		if err != nil {
			return err
		}
		out.Message = msg
		out.Participants = c.ParticipantIDs()
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return &out, nil
}

func (uc *SendMessageUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}

// loadChat hydrates the aggregate inside tx. A missing conversation surfaces
// as ErrNotParticipant.
func loadChat(ctx context.Context, tx repository.ChatRepository, conversationID string) (*chat.Chat, error) {
	conv, err := tx.FindConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, chat.ErrNotParticipant
	}
	participants, err := tx.ListParticipants(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return chat.NewChat(*conv, participants), nil
}

func appendMessage(ctx context.Context, tx repository.ChatRepository, c *chat.Chat, senderID int64, content string, now time.Time) (*chat.Message, error) {
	msg, err := c.PostMessage(senderID, content, now)
	if err != nil {
		return nil, err
	}
	stored, err := tx.CreateMessage(ctx, *msg)
	if err != nil {
		return nil, err
	}
	if err := tx.TouchConversation(ctx, stored.ConversationID, stored.CreatedAt); err != nil {
		return nil, err
	}
	return stored, nil
}
