package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"go-messenger/internal/infrastructure/realtime"
	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/persistence/repository/adapter"
)

type tokenTable map[string]int64

func (tt tokenTable) Verify(token string) (int64, error) {
	id, ok := tt[token]
	if !ok {
		return 0, errors.New("unknown token")
	}
	return id, nil
}

type testSocket struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

func newTestSocket() *testSocket {
	return &testSocket{frames: make(chan []byte, 512)}
}

func (s *testSocket) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.TextMessage {
		s.frames <- data
	}
	return nil
}

func (s *testSocket) WriteControl(int, []byte, time.Time) error { return nil }
func (s *testSocket) SetWriteDeadline(time.Time) error         { return nil }

func (s *testSocket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

type harness struct {
	t    *testing.T
	repo *adapter.MemoryChatRepository
	uc   UseCases
	gw   *Gateway
	reg  *realtime.Registry
	ids  map[string]int64
	ctx  context.Context
}

func newHarness(t *testing.T, names ...string) *harness {
	t.Helper()
	repo := adapter.NewMemoryChatRepository()
	users := usecase.NewLookupUserUseCase(repo, nil, 0)
	uc := UseCases{
		Join:          usecase.NewJoinConversationUseCase(repo),
		Add:           usecase.NewAddParticipantUseCase(repo, users),
		Remove:        usecase.NewRemoveParticipantUseCase(repo),
		Send:          usecase.NewSendMessageUseCase(repo),
		Start:         usecase.NewStartConversationUseCase(repo, users),
		Create:        usecase.NewCreateConversationUseCase(repo, users),
		Delete:        usecase.NewDeleteConversationUseCase(repo),
		Page:          usecase.NewGetMessagePageUseCase(repo, 0, 0),
		Conversations: usecase.NewListConversationsUseCase(repo),
		Participants:  usecase.NewListParticipantsUseCase(repo),
	}
	tokens := tokenTable{}
	ids := map[string]int64{}
	for _, n := range names {
		id := repo.AddUser(n).ID
		ids[n] = id
		tokens["tok-"+n] = id
	}
	reg := realtime.NewRegistry()
	gw := New(reg, tokens, uc, Options{SendBuffer: 512})
	t.Cleanup(gw.Shutdown)
	return &harness{t: t, repo: repo, uc: uc, gw: gw, reg: reg, ids: ids, ctx: context.Background()}
}

// connect opens an authenticated session for name.
func (h *harness) connect(name string) (*Session, *testSocket) {
	h.t.Helper()
	s := h.gw.NewSession()
	if err := s.Authenticate("tok-" + name); err != nil {
		h.t.Fatalf("authenticate %s: %v", name, err)
	}
	ws := newTestSocket()
	if _, err := s.Attach(ws); err != nil {
		h.t.Fatalf("attach %s: %v", name, err)
	}
	h.t.Cleanup(s.Close)
	return s, ws
}

// conversation creates a conversation directly through the use case, so no
// events are emitted.
func (h *harness) conversation(creator string, invitees ...string) string {
	h.t.Helper()
	ids := make([]int64, 0, len(invitees))
	for _, n := range invitees {
		ids = append(ids, h.ids[n])
	}
	out, err := h.uc.Create.Execute(h.ctx, usecase.CreateConversationInput{CreatorID: h.ids[creator], ParticipantIDs: ids})
	if err != nil {
		h.t.Fatalf("create conversation: %v", err)
	}
	return out.Conversation.ID
}

func (h *harness) dispatch(s *Session, event string, data interface{}) error {
	h.t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"event": event, "data": data})
	if err != nil {
		h.t.Fatal(err)
	}
	return s.Dispatch(h.ctx, raw)
}

type received struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func nextFrame(t *testing.T, ws *testSocket) received {
	t.Helper()
	select {
	case raw := <-ws.frames:
		var r received
		if err := json.Unmarshal(raw, &r); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a frame")
		return received{}
	}
}

// expectEvent reads the next frame and checks its event name.
func expectEvent(t *testing.T, ws *testSocket, event string, into interface{}) {
	t.Helper()
	r := nextFrame(t, ws)
	if r.Event != event {
		t.Fatalf("event = %q (%s), want %q", r.Event, r.Data, event)
	}
	if into != nil {
		if err := json.Unmarshal(r.Data, into); err != nil {
			t.Fatalf("decode %s: %v", event, err)
		}
	}
}

func expectQuiet(t *testing.T, ws *testSocket) {
	t.Helper()
	select {
	case raw := <-ws.frames:
		t.Fatalf("unexpected frame %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}
