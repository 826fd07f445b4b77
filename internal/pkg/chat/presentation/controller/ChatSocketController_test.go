package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"go-messenger/internal/infrastructure/auth"
	"go-messenger/internal/infrastructure/realtime"
	"go-messenger/internal/pkg/chat/application/gateway"
	"go-messenger/internal/pkg/chat/application/usecase"
	"go-messenger/internal/pkg/chat/persistence/repository/adapter"
)

const socketSecret = "test-secret"

type socketEnv struct {
	server *httptest.Server
	repo   *adapter.MemoryChatRepository
	alice  int64
	bob    int64
}

func newSocketEnv(t *testing.T) *socketEnv {
	t.Helper()
	repo := adapter.NewMemoryChatRepository()
	alice, bob := repo.AddUser("alice").ID, repo.AddUser("bob").ID
	users := usecase.NewLookupUserUseCase(repo, nil, 0)
	gw := gateway.New(realtime.NewRegistry(), auth.NewVerifier(socketSecret), gateway.UseCases{
		Join:          usecase.NewJoinConversationUseCase(repo),
		Send:          usecase.NewSendMessageUseCase(repo),
		Start:         usecase.NewStartConversationUseCase(repo, users),
		Conversations: usecase.NewListConversationsUseCase(repo),
	}, gateway.Options{})

	r := gin.New()
	r.GET("/ws", NewChatSocketController(gw, nil).Handle())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		gw.Shutdown()
		srv.Close()
	})
	return &socketEnv{server: srv, repo: repo, alice: alice, bob: bob}
}

func (e *socketEnv) url() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
}

func (e *socketEnv) token(t *testing.T, userID int64) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(socketSecret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (e *socketEnv) dial(t *testing.T, userID int64) *websocket.Conn {
	t.Helper()
	header := http.Header{"Authorization": []string{"Bearer " + e.token(t, userID)}}
	ws, _, err := websocket.DefaultDialer.Dial(e.url(), header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readEvent(t *testing.T, ws *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := ws.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	return frame.Event, frame.Data
}

func TestChatSocket_RejectsMissingOrBadCredential(t *testing.T) {
	env := newSocketEnv(t)

	for _, url := range []string{env.url(), env.url() + "?token=forged"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Fatalf("dial %s succeeded without a valid credential", url)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("dial %s response = %+v", url, resp)
		}
	}
}

func TestChatSocket_HeaderWinsOverQueryToken(t *testing.T) {
	env := newSocketEnv(t)

	header := http.Header{"Authorization": {"Bearer " + env.token(t, env.alice)}}
	ws, _, err := websocket.DefaultDialer.Dial(env.url()+"?token=forged", header)
	if err != nil {
		t.Fatalf("valid header with forged query token rejected: %v", err)
	}
	ws.Close()

	header = http.Header{"Authorization": {"Bearer forged"}}
	_, resp, err := websocket.DefaultDialer.Dial(env.url()+"?token="+env.token(t, env.alice), header)
	if err == nil {
		t.Fatal("forged header accepted because of a valid query token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %+v, want 401", resp)
	}
}

func TestChatSocket_StartAndReceive(t *testing.T) {
	env := newSocketEnv(t)
	bobWS := env.dial(t, env.bob)

	// query token works when no header is sent
	aliceWS, _, err := websocket.DefaultDialer.Dial(env.url()+"?token="+env.token(t, env.alice), nil)
	if err != nil {
		t.Fatalf("dial with query token: %v", err)
	}
	defer aliceWS.Close()

	start := map[string]interface{}{
		"event": "start_conversation",
		"data":  map[string]interface{}{"participantsIds": []int64{env.bob}, "content": "hello bob"},
	}
	if err := aliceWS.WriteJSON(start); err != nil {
		t.Fatal(err)
	}

	event, data := readEvent(t, bobWS)
	if event != gateway.EventNewMessage {
		t.Fatalf("bob got %q, want new_message", event)
	}
	var msg gateway.NewMessageEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Content != "hello bob" || msg.Sender.ID != env.alice {
		t.Fatalf("message = %+v", msg)
	}
	if event, _ := readEvent(t, bobWS); event != gateway.EventConversationUpdated {
		t.Fatalf("bob got %q, want conversation_updated", event)
	}

	if err := aliceWS.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	for {
		event, data := readEvent(t, aliceWS)
		if event == gateway.EventError {
			var ev gateway.ErrorEvent
			_ = json.Unmarshal(data, &ev)
			if ev.Code != "invalid" {
				t.Fatalf("error event = %+v", ev)
			}
			break
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	list, err := env.repo.ListUserConversations(ctx, env.bob)
	if err != nil || len(list) != 1 {
		t.Fatalf("bob's conversations = %+v, %v", list, err)
	}
}
