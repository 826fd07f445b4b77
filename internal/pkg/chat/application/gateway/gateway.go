package gateway

import (
	"context"

	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/logging"
	"go-messenger/internal/infrastructure/realtime"
	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/application/usecase"
)

// TokenVerifier is the Auth capability consumed at handshake.
type TokenVerifier interface {
	Verify(token string) (int64, error)
}

// UseCases bundles the application services the gateway orchestrates.
type UseCases struct {
	Join          *usecase.JoinConversationUseCase
	Add           *usecase.AddParticipantUseCase
	Remove        *usecase.RemoveParticipantUseCase
	Send          *usecase.SendMessageUseCase
	Start         *usecase.StartConversationUseCase
	Create        *usecase.CreateConversationUseCase
	Delete        *usecase.DeleteConversationUseCase
	Page          *usecase.GetMessagePageUseCase
	Conversations *usecase.ListConversationsUseCase
	Participants  *usecase.ListParticipantsUseCase
}

type Options struct {
	Log *zap.Logger
	// Refresher defaults to an inline DirectoryPusher.
	Refresher DirectoryRefresher
	// SendBuffer is the per-connection outbound queue size.
	SendBuffer int
}

// Gateway is the realtime router. It checks membership through the use cases,
// keeps room subscriptions in the registry in step with the store and fans
// events out to live connections.
//
// Mutations of one conversation are serialized together with their broadcast,
// so subscribers observe new_message events in message id order.
type Gateway struct {
	registry   *realtime.Registry
	verifier   TokenVerifier
	uc         UseCases
	refresher  DirectoryRefresher
	locks      *keyedMutex
	sendBuffer int
	log        *zap.Logger
}

func New(registry *realtime.Registry, verifier TokenVerifier, uc UseCases, opts Options) *Gateway {
	log := logging.OrNop(opts.Log)
	refresher := opts.Refresher
	if refresher == nil {
		refresher = NewDirectoryPusher(registry, uc.Conversations, log)
	}
	return &Gateway{
		registry:   registry,
		verifier:   verifier,
		uc:         uc,
		refresher:  refresher,
		locks:      newKeyedMutex(),
		sendBuffer: opts.SendBuffer,
		log:        log.Named("gateway"),
	}
}

// Authenticate maps a bearer credential to a user id.
func (g *Gateway) Authenticate(credential string) (int64, error) {
	if credential == "" {
		return 0, chat.ErrUnauthenticated
	}
	userID, err := g.verifier.Verify(credential)
	if err != nil || userID <= 0 {
		return 0, chat.ErrUnauthenticated
	}
	return userID, nil
}

// Join subscribes a connection to a conversation room after checking membership.
func (g *Gateway) Join(ctx context.Context, connectionID string, userID int64, conversationID string) error {
	unlock := g.locks.Lock(conversationID)
	defer unlock()

	if err := g.uc.Join.Execute(ctx, usecase.JoinConversationInput{
		ConversationID: conversationID,
		UserID:         userID,
	}); err != nil {
		return err
	}
	if !g.registry.JoinRoom(connectionID, conversationID) {
		return chat.ErrUnauthenticated
	}
	return nil
}

// Send appends a message and delivers it to every live connection of every participant.
func (g *Gateway) Send(ctx context.Context, userID int64, conversationID, content string) (*chat.Message, error) {
	ctx = context.WithoutCancel(ctx)

	unlock := g.locks.Lock(conversationID)
	out, err := g.uc.Send.Execute(ctx, usecase.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        content,
	})
	if err != nil {
		unlock()
		return nil, err
	}
	g.subscribe(conversationID, out.Participants)
	g.broadcast(conversationID, EventNewMessage, newMessageEvent(out.Message))
	unlock()

	g.refresher.Refresh(ctx, out.Participants)
	return out.Message, nil
}

// Start opens a conversation (reusing an existing direct one) with a first message.
func (g *Gateway) Start(ctx context.Context, userID int64, participantIDs []int64, content string) (*usecase.StartConversationOutput, error) {
	ctx = context.WithoutCancel(ctx)

	// Lock the direct conversation up front when one will be reused, so the
	// first message is ordered with concurrent sends to it.
	var unlock func()
	existing, err := g.uc.Start.ExistingDirect(ctx, userID, participantIDs)
	if err != nil {
		return nil, err
	}
	if existing != "" {
		unlock = g.locks.Lock(existing)
	}

	out, err := g.uc.Start.Execute(ctx, usecase.StartConversationInput{
		CreatorID:      userID,
		ParticipantIDs: participantIDs,
		Content:        content,
	})
	if err != nil {
		if unlock != nil {
			unlock()
		}
		return nil, err
	}
	if existing != out.Conversation.ID {
		if unlock != nil {
			unlock()
		}
		unlock = g.locks.Lock(out.Conversation.ID)
	}
	g.subscribe(out.Conversation.ID, out.Participants)
	g.broadcast(out.Conversation.ID, EventNewMessage, newMessageEvent(out.Message))
	unlock()

	g.refresher.Refresh(ctx, out.Participants)
	return out, nil
}

// Create opens a conversation without a message.
func (g *Gateway) Create(ctx context.Context, userID int64, participantIDs []int64) (*usecase.CreateConversationOutput, error) {
	ctx = context.WithoutCancel(ctx)

	out, err := g.uc.Create.Execute(ctx, usecase.CreateConversationInput{
		CreatorID:      userID,
		ParticipantIDs: participantIDs,
	})
	if err != nil {
		return nil, err
	}
	unlock := g.locks.Lock(out.Conversation.ID)
	g.subscribe(out.Conversation.ID, out.Participants)
	unlock()

	g.refresher.Refresh(ctx, out.Participants)
	return out, nil
}

// AddParticipant admits userID into a group conversation and joins their live
// connections to the room.
func (g *Gateway) AddParticipant(ctx context.Context, actorID int64, conversationID string, userID int64) (*usecase.AddParticipantOutput, error) {
	ctx = context.WithoutCancel(ctx)

	unlock := g.locks.Lock(conversationID)
	out, err := g.uc.Add.Execute(ctx, usecase.AddParticipantInput{
		ConversationID: conversationID,
		ActorID:        actorID,
		UserID:         userID,
	})
	if err != nil {
		unlock()
		return nil, err
	}
	g.registry.JoinUser(userID, conversationID)
	g.broadcast(conversationID, EventUserAdded, UserAddedEvent{
		ConversationID: conversationID,
		AddedUserID:    userID,
		AddedBy:        actorID,
	})
	unlock()

	g.refresher.Refresh(ctx, out.Participants)
	return out, nil
}

// RemoveParticipant removes userID from a group conversation. Their
// connections leave the room before anything else is delivered to it.
func (g *Gateway) RemoveParticipant(ctx context.Context, actorID int64, conversationID string, userID int64) (*usecase.RemoveParticipantOutput, error) {
	ctx = context.WithoutCancel(ctx)

	unlock := g.locks.Lock(conversationID)
	out, err := g.uc.Remove.Execute(ctx, usecase.RemoveParticipantInput{
		ConversationID: conversationID,
		ActorID:        actorID,
		UserID:         userID,
	})
	if err != nil {
		unlock()
		return nil, err
	}
	g.registry.LeaveUser(userID, conversationID)
	event := UserRemovedEvent{
		ConversationID: conversationID,
		RemovedUserID:  userID,
		RemovedBy:      actorID,
	}
	g.broadcast(conversationID, EventUserRemoved, event)
	g.notify(userID, EventUserRemoved, event)
	unlock()

	g.refresher.Refresh(ctx, append(out.Remaining, userID))
	return out, nil
}

// DeleteConversation removes the conversation and drops its room.
func (g *Gateway) DeleteConversation(ctx context.Context, actorID int64, conversationID string) (*usecase.DeleteConversationOutput, error) {
	ctx = context.WithoutCancel(ctx)

	unlock := g.locks.Lock(conversationID)
	out, err := g.uc.Delete.Execute(ctx, usecase.DeleteConversationInput{
		ConversationID: conversationID,
		ActorID:        actorID,
	})
	if err != nil {
		unlock()
		return nil, err
	}
	g.registry.DropRoom(conversationID)
	unlock()

	g.refresher.Refresh(ctx, out.FormerParticipants)
	return out, nil
}

// FetchPage returns one page of history. limit nil selects the default.
func (g *Gateway) FetchPage(ctx context.Context, userID int64, conversationID, cursor string, limit *int) (*usecase.MessagePage, error) {
	return g.uc.Page.Execute(ctx, usecase.GetMessagePageInput{
		ConversationID: conversationID,
		UserID:         userID,
		Cursor:         cursor,
		Limit:          limit,
	})
}

// UserConversations is the caller's conversation directory.
func (g *Gateway) UserConversations(ctx context.Context, userID int64) ([]chat.ConversationSummary, error) {
	return g.uc.Conversations.Execute(ctx, usecase.ListConversationsInput{UserID: userID})
}

// Participants lists the members of a conversation to one of them.
func (g *Gateway) Participants(ctx context.Context, userID int64, conversationID string) ([]chat.Participant, error) {
	return g.uc.Participants.Execute(ctx, usecase.ListParticipantsInput{
		ConversationID: conversationID,
		UserID:         userID,
	})
}

// Shutdown closes every live connection.
func (g *Gateway) Shutdown() {
	g.registry.Close()
}

func (g *Gateway) subscribe(conversationID string, userIDs []int64) {
	for _, id := range userIDs {
		g.registry.JoinUser(id, conversationID)
	}
}

func (g *Gateway) broadcast(conversationID, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		g.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	n := g.registry.Broadcast(conversationID, payload)
	g.log.Debug("broadcast", zap.String("event", event), zap.String("conversation_id", conversationID), zap.Int("delivered", n))
}

func (g *Gateway) notify(userID int64, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		g.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return
	}
	g.registry.NotifyUser(userID, payload)
}
