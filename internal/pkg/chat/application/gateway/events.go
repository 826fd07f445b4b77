package gateway

import (
	"encoding/json"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
)

// Client -> server events.
const (
	EventJoinConversation       = "join_conversation"
	EventAddToConversation      = "add_to_conversation"
	EventRemoveFromConversation = "remove_from_conversation"
	EventSendMessage            = "send_message"
	EventStartConversation      = "start_conversation"
)

// Server -> client events.
const (
	EventJoinedConversation  = "joined_conversation"
	EventError               = "error"
	EventUserAdded           = "user_added_to_conversation"
	EventUserRemoved         = "user_removed_from_conversation"
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"
)

// Frame is the envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outFrame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type JoinConversationPayload struct {
	ConversationID string `json:"conversationId"`
}

type AddToConversationPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         int64  `json:"userId"`
}

type RemoveFromConversationPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         int64  `json:"userId"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversationId"`
	Content        string `json:"content"`
}

type StartConversationPayload struct {
	ParticipantsIDs []int64 `json:"participantsIds"`
	Content         string  `json:"content"`
}

type JoinedConversationEvent struct {
	ConversationID string `json:"conversationId"`
}

type UserAddedEvent struct {
	ConversationID string `json:"conversationId"`
	AddedUserID    int64  `json:"addedUserId"`
	AddedBy        int64  `json:"addedBy"`
}

type UserRemovedEvent struct {
	ConversationID string `json:"conversationId"`
	RemovedUserID  int64  `json:"removedUserId"`
	RemovedBy      int64  `json:"removedBy"`
}

type NewMessageEvent struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	Sender         chat.User `json:"sender"`
	ConversationID string    `json:"conversationId"`
}

type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func newMessageEvent(m *chat.Message) NewMessageEvent {
	sender := m.Sender
	sender.ID = m.SenderID
	return NewMessageEvent{
		ID:             m.ID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
		Sender:         sender,
		ConversationID: m.ConversationID,
	}
}

func encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(outFrame{Event: event, Data: data})
}
