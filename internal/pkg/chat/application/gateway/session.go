package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/realtime"
	chat "go-messenger/internal/pkg/chat/application/domain"
	"go-messenger/internal/pkg/chat/application/usecase"
)

// State of a websocket session.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "closed"
	}
}

var (
	ErrMalformedFrame = errors.New("gateway: malformed frame")
	ErrUnknownEvent   = errors.New("gateway: unknown event")
	errInternal       = errors.New("internal error")
)

// ResolveCredential picks the bearer token from the Authorization header,
// falling back to the handshake token. The header wins when both are present.
func ResolveCredential(authorization, handshakeToken string) string {
	if token, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Bearer "); ok {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	return strings.TrimSpace(handshakeToken)
}

// Session is the per-connection state machine:
// Unauthenticated -> Authenticated (once, at handshake) -> Closed.
type Session struct {
	g *Gateway

	mu     sync.Mutex
	state  State
	userID int64
	conn   *realtime.Connection
	log    *zap.Logger
}

func (g *Gateway) NewSession() *Session {
	return &Session{g: g, state: StateUnauthenticated, log: g.log}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Authenticate binds the session to the user the credential belongs to.
// A failed credential closes the session; nothing is registered.
func (s *Session) Authenticate(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnauthenticated {
		return fmt.Errorf("%w: session is %s", chat.ErrUnauthenticated, s.state)
	}
	userID, err := s.g.Authenticate(credential)
	if err != nil {
		s.state = StateClosed
		return err
	}
	s.userID = userID
	s.state = StateAuthenticated
	s.log = s.g.log.With(zap.Int64("user_id", userID))
	return nil
}

// Attach wraps the upgraded socket and registers it. Only valid once, after
// Authenticate.
func (s *Session) Attach(ws realtime.Socket) (*realtime.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAuthenticated || s.conn != nil {
		return nil, chat.ErrUnauthenticated
	}
	s.conn = realtime.NewConnection(s.userID, ws, s.g.sendBuffer)
	s.log = s.log.With(zap.String("connection_id", s.conn.ID))
	s.g.registry.Register(s.conn)
	s.log.Info("connected")
	return s.conn, nil
}

// Close unregisters the connection. When it returns no further event can be
// delivered to it. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		s.g.registry.Unregister(conn.ID)
		conn.Close(websocket.CloseNormalClosure, "")
		s.log.Info("disconnected")
	}
}

// Dispatch handles one inbound frame. Any failure, including a panic, is
// reported to this connection only as an error event and returned.
func (s *Session) Dispatch(ctx context.Context, raw []byte) (err error) {
	s.mu.Lock()
	state, userID, conn := s.state, s.userID, s.conn
	s.mu.Unlock()
	if state != StateAuthenticated || conn == nil {
		return chat.ErrUnauthenticated
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic while handling frame", zap.Any("panic", r), zap.Stack("stack"))
			err = errInternal
		}
		if err != nil {
			s.replyError(conn, err)
		}
	}()

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		return ErrMalformedFrame
	}

	switch frame.Event {
	case EventJoinConversation:
		var p JoinConversationPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		if err := s.g.Join(ctx, conn.ID, userID, p.ConversationID); err != nil {
			return err
		}
		s.reply(conn, EventJoinedConversation, JoinedConversationEvent{ConversationID: p.ConversationID})
		return nil

	case EventAddToConversation:
		var p AddToConversationPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		_, err := s.g.AddParticipant(ctx, userID, p.ConversationID, p.UserID)
		return err

	case EventRemoveFromConversation:
		var p RemoveFromConversationPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		_, err := s.g.RemoveParticipant(ctx, userID, p.ConversationID, p.UserID)
		return err

	case EventSendMessage:
		var p SendMessagePayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		_, err := s.g.Send(ctx, userID, p.ConversationID, p.Content)
		return err

	case EventStartConversation:
		var p StartConversationPayload
		if err := decode(frame.Data, &p); err != nil {
			return err
		}
		_, err := s.g.Start(ctx, userID, p.ParticipantsIDs, p.Content)
		return err

	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, frame.Event)
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return ErrMalformedFrame
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return nil
}

func (s *Session) reply(conn *realtime.Connection, event string, data interface{}) {
	payload, err := encode(event, data)
	if err != nil {
		s.log.Error("encode reply", zap.String("event", event), zap.Error(err))
		return
	}
	_ = conn.Send(payload)
}

func (s *Session) replyError(conn *realtime.Connection, err error) {
	ev := ErrorEvent{Message: usecase.PublicMessage(err), Code: usecase.KindOf(err).Code()}
	switch {
	case errors.Is(err, ErrMalformedFrame), errors.Is(err, ErrUnknownEvent):
		ev = ErrorEvent{Message: err.Error(), Code: usecase.KindValidation.Code()}
	case errors.Is(err, errInternal):
		ev = ErrorEvent{Message: err.Error(), Code: usecase.KindTransientStore.Code()}
	}
	if ev.Code == usecase.KindTransientStore.Code() {
		s.log.Warn("request failed", zap.Error(err))
	}
	s.reply(conn, EventError, ev)
}
