package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeSocket struct {
	mu      sync.Mutex
	frames  chan []byte
	closed  bool
	control []int
	// stall, when set, blocks every write until it is closed.
	stall chan struct{}
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{frames: make(chan []byte, 64)}
}

// newStalledSocket models a peer that stopped reading. The stall is released on test cleanup.
func newStalledSocket(t *testing.T) *fakeSocket {
	s := newFakeSocket()
	s.stall = make(chan struct{})
	t.Cleanup(func() { close(s.stall) })
	return s
}

func (s *fakeSocket) WriteMessage(messageType int, data []byte) error {
	if s.stall != nil {
		<-s.stall
	}
	if messageType == websocket.TextMessage {
		s.frames <- data
	}
	return nil
}

func (s *fakeSocket) WriteControl(messageType int, _ []byte, _ time.Time) error {
	if s.stall != nil {
		<-s.stall
	}
	s.mu.Lock()
	s.control = append(s.control, messageType)
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) SetWriteDeadline(time.Time) error { return nil }

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func waitClosed(t *testing.T, s *fakeSocket) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !s.isClosed() {
		if time.Now().After(deadline) {
			t.Fatal("socket was not closed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func expectFrame(t *testing.T, s *fakeSocket, want string) {
	t.Helper()
	select {
	case got := <-s.frames:
		if string(got) != want {
			t.Fatalf("frame = %q, want %q", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("no frame, want %q", want)
	}
}

func expectNoFrame(t *testing.T, s *fakeSocket) {
	t.Helper()
	select {
	case got := <-s.frames:
		t.Fatalf("unexpected frame %q", got)
	case <-time.After(50 * time.Millisecond):
	}
}
