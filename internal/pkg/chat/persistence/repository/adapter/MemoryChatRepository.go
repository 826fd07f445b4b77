package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"

	"github.com/google/uuid"
)

// MemoryChatRepository keeps the whole chat schema in process memory.
// Transactions clone the state, run against the clone and swap it in on
// success, so a failed InTx leaves nothing behind. It backs tests and
// CHAT_STORE=memory for local development.
type MemoryChatRepository struct {
	store *memoryStore
	tx    *memoryState // non-nil for the view handed to an InTx callback
}

type memoryStore struct {
	mu    sync.Mutex
	state *memoryState
	now   func() time.Time
}

type memoryState struct {
	users             map[int64]chat.User
	conversations     map[string]chat.Conversation
	participants      map[string][]chat.Participant // conversationID -> ordered by join
	messages          map[string][]chat.Message     // conversationID -> ascending id
	nextUserID        int64
	nextParticipantID int64
	nextMessageID     int64
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		store: &memoryStore{
			state: &memoryState{
				users:         make(map[int64]chat.User),
				conversations: make(map[string]chat.Conversation),
				participants:  make(map[string][]chat.Participant),
				messages:      make(map[string][]chat.Message),
			},
			now: func() time.Time { return time.Now().UTC() },
		},
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

// AddUser seeds a user and returns it with its assigned id.
func (r *MemoryChatRepository) AddUser(username string) chat.User {
	var u chat.User
	_ = r.view(func(s *memoryState) error {
		s.nextUserID++
		u = chat.User{ID: s.nextUserID, Username: username}
		s.users[u.ID] = u
		return nil
	})
	return u
}

// MessageCount reports how many messages are stored for the conversation.
func (r *MemoryChatRepository) MessageCount(conversationID string) int {
	var n int
	_ = r.view(func(s *memoryState) error {
		n = len(s.messages[conversationID])
		return nil
	})
	return n
}

// ConversationCount reports how many conversations exist.
func (r *MemoryChatRepository) ConversationCount() int {
	var n int
	_ = r.view(func(s *memoryState) error {
		n = len(s.conversations)
		return nil
	})
	return n
}

func (r *MemoryChatRepository) InTx(ctx context.Context, fn func(tx repository.ChatRepository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := r.store.state.clone()
	if err := fn(&MemoryChatRepository{store: r.store, tx: working}); err != nil {
		return err
	}
	r.store.state = working
	return nil
}

func (r *MemoryChatRepository) view(fn func(s *memoryState) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

func (r *MemoryChatRepository) FindParticipant(_ context.Context, conversationID string, userID int64) (*chat.Participant, error) {
	var found *chat.Participant
	err := r.view(func(s *memoryState) error {
		for _, p := range s.participants[conversationID] {
			if p.UserID == userID {
				p := p
				found = &p
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *MemoryChatRepository) ListParticipants(_ context.Context, conversationID string) ([]chat.Participant, error) {
	var out []chat.Participant
	err := r.view(func(s *memoryState) error {
		out = append([]chat.Participant(nil), s.participants[conversationID]...)
		return nil
	})
	return out, err
}

func (r *MemoryChatRepository) CreateParticipant(_ context.Context, conversationID string, userID int64) (*chat.Participant, error) {
	var created *chat.Participant
	err := r.view(func(s *memoryState) error {
		if _, ok := s.conversations[conversationID]; !ok {
			return chat.ErrConversationNotFound
		}
		if _, ok := s.users[userID]; !ok {
			return chat.ErrUserNotFound
		}
		for _, p := range s.participants[conversationID] {
			if p.UserID == userID {
				return chat.ErrAlreadyParticipant
			}
		}
		s.nextParticipantID++
		p := chat.Participant{
			ID:             s.nextParticipantID,
			ConversationID: conversationID,
			UserID:         userID,
			JoinedAt:       r.store.now(),
		}
		s.participants[conversationID] = append(s.participants[conversationID], p)
		created = &p
		return nil
	})
	return created, err
}

func (r *MemoryChatRepository) DeleteParticipant(_ context.Context, conversationID string, userID int64) error {
	return r.view(func(s *memoryState) error {
		members := s.participants[conversationID]
		for i, p := range members {
			if p.UserID == userID {
				s.participants[conversationID] = append(members[:i:i], members[i+1:]...)
				return nil
			}
		}
		return chat.ErrUserNotFound
	})
}

func (r *MemoryChatRepository) FindConversation(_ context.Context, conversationID string) (*chat.Conversation, error) {
	var found *chat.Conversation
	err := r.view(func(s *memoryState) error {
		if c, ok := s.conversations[conversationID]; ok {
			found = &c
		}
		return nil
	})
	return found, err
}

func (r *MemoryChatRepository) CreateConversation(_ context.Context, isGroup bool) (*chat.Conversation, error) {
	var created chat.Conversation
	err := r.view(func(s *memoryState) error {
		now := r.store.now()
		created = chat.Conversation{
			ID:        uuid.NewString(),
			IsGroup:   isGroup,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.conversations[created.ID] = created
		return nil
	})
	return &created, err
}

func (r *MemoryChatRepository) DeleteConversation(_ context.Context, conversationID string) error {
	return r.view(func(s *memoryState) error {
		if _, ok := s.conversations[conversationID]; !ok {
			return chat.ErrConversationNotFound
		}
		delete(s.conversations, conversationID)
		delete(s.participants, conversationID)
		delete(s.messages, conversationID)
		return nil
	})
}

func (r *MemoryChatRepository) FindDirectConversation(_ context.Context, userA, userB int64) (*chat.Conversation, error) {
	var found *chat.Conversation
	err := r.view(func(s *memoryState) error {
		for id, c := range s.conversations {
			if c.IsGroup {
				continue
			}
			var hasA, hasB bool
			for _, p := range s.participants[id] {
				hasA = hasA || p.UserID == userA
				hasB = hasB || p.UserID == userB
			}
			if hasA && hasB && (found == nil || c.CreatedAt.Before(found.CreatedAt)) {
				c := c
				found = &c
			}
		}
		return nil
	})
	return found, err
}

func (r *MemoryChatRepository) TouchConversation(_ context.Context, conversationID string, at time.Time) error {
	return r.view(func(s *memoryState) error {
		c, ok := s.conversations[conversationID]
		if !ok {
			return chat.ErrConversationNotFound
		}
		if at.After(c.UpdatedAt) {
			c.UpdatedAt = at
			s.conversations[conversationID] = c
		}
		return nil
	})
}

func (r *MemoryChatRepository) CreateMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	var created chat.Message
	err := r.view(func(s *memoryState) error {
		if _, ok := s.conversations[m.ConversationID]; !ok {
			return chat.ErrConversationNotFound
		}
		sender, ok := s.users[m.SenderID]
		if !ok {
			return chat.ErrUserNotFound
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = r.store.now()
		}
		s.nextMessageID++
		m.ID = s.nextMessageID
		m.Sender = sender
		s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *MemoryChatRepository) ListMessages(_ context.Context, conversationID string, beforeID int64, limit int) ([]chat.Message, error) {
	if limit <= 0 {
		return nil, chat.ErrInvalidLimit
	}
	out := make([]chat.Message, 0, limit)
	err := r.view(func(s *memoryState) error {
		msgs := s.messages[conversationID]
		for i := len(msgs) - 1; i >= 0 && len(out) < limit; i-- {
			if beforeID != 0 && msgs[i].ID >= beforeID {
				continue
			}
			out = append(out, msgs[i])
		}
		return nil
	})
	return out, err
}

func (r *MemoryChatRepository) ListUserConversations(_ context.Context, userID int64) ([]chat.ConversationSummary, error) {
	summaries := make([]chat.ConversationSummary, 0)
	created := make(map[string]time.Time)
	err := r.view(func(s *memoryState) error {
		for id, members := range s.participants {
			var isMember bool
			for _, p := range members {
				if p.UserID == userID {
					isMember = true
					break
				}
			}
			if !isMember {
				continue
			}
			c := s.conversations[id]
			summary := chat.ConversationSummary{
				ConversationID: c.ID,
				IsGroup:        c.IsGroup,
				UpdatedAt:      c.UpdatedAt,
				Participants:   make([]chat.User, 0, len(members)),
			}
			for _, p := range members {
				summary.Participants = append(summary.Participants, s.users[p.UserID])
			}
			if msgs := s.messages[id]; len(msgs) > 0 {
				last := msgs[len(msgs)-1]
				summary.LastMessage = &chat.LastMessage{
					ID:        last.ID,
					Content:   last.Content,
					CreatedAt: last.CreatedAt,
					Sender:    s.users[last.SenderID],
				}
			}
			created[c.ID] = c.CreatedAt
			summaries = append(summaries, summary)
		}
		return nil
	})
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if ca, cb := created[a.ConversationID], created[b.ConversationID]; !ca.Equal(cb) {
			return ca.After(cb)
		}
		return a.ConversationID < b.ConversationID
	})
	return summaries, err
}

func (r *MemoryChatRepository) FindUser(_ context.Context, userID int64) (*chat.User, error) {
	var found *chat.User
	err := r.view(func(s *memoryState) error {
		if u, ok := s.users[userID]; ok {
			found = &u
		}
		return nil
	})
	return found, err
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		users:             make(map[int64]chat.User, len(s.users)),
		conversations:     make(map[string]chat.Conversation, len(s.conversations)),
		participants:      make(map[string][]chat.Participant, len(s.participants)),
		messages:          make(map[string][]chat.Message, len(s.messages)),
		nextUserID:        s.nextUserID,
		nextParticipantID: s.nextParticipantID,
		nextMessageID:     s.nextMessageID,
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.conversations {
		out.conversations[k] = v
	}
	for k, v := range s.participants {
		out.participants[k] = append([]chat.Participant(nil), v...)
	}
	for k, v := range s.messages {
		out.messages[k] = append([]chat.Message(nil), v...)
	}
	return out
}
