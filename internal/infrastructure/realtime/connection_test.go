package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestConnection_SendDeliversInOrder(t *testing.T) {
	ws := newFakeSocket()
	c := NewConnection(1, ws, 8)
	c.Start()
	defer c.Close(1000, "done")

	for _, p := range []string{"a", "b", "c"} {
		if err := c.Send([]byte(p)); err != nil {
			t.Fatalf("send %s: %v", p, err)
		}
	}
	expectFrame(t, ws, "a")
	expectFrame(t, ws, "b")
	expectFrame(t, ws, "c")
}

func TestConnection_SendAfterCloseFails(t *testing.T) {
	ws := newFakeSocket()
	c := NewConnection(1, ws, 8)
	c.Start()
	c.Close(1000, "bye")
	c.Close(1000, "bye again")

	if err := c.Send([]byte("x")); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("want ErrConnectionClosed, got %v", err)
	}
	if !ws.isClosed() {
		t.Fatal("socket not closed")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestConnection_FullBufferClosesConnection(t *testing.T) {
	ws := newFakeSocket()
	c := NewConnection(1, ws, 1) // write loop not started, buffer never drains

	if err := c.Send([]byte("1")); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := c.Send([]byte("2")); !errors.Is(err, ErrBufferExceeded) {
		t.Fatalf("want ErrBufferExceeded, got %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("overflow should mark the connection closed before Send returns")
	}
	if err := c.Send([]byte("3")); !errors.Is(err, ErrConnectionClosed) {
		t.Fatalf("send after overflow: want ErrConnectionClosed, got %v", err)
	}
	waitClosed(t, ws)
}

func TestConnection_OverflowDoesNotWaitOnCloseFrame(t *testing.T) {
	ws := newStalledSocket(t)
	c := NewConnection(1, ws, 1)

	_ = c.Send([]byte("1"))
	done := make(chan error, 1)
	go func() { done <- c.Send([]byte("2")) }()

	select {
	case err := <-done:
		if !errors.Is(err, ErrBufferExceeded) {
			t.Fatalf("want ErrBufferExceeded, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Send blocked on the close frame write")
	}
}

func TestConnection_ConcurrentSendAndCloseDoNotPanic(t *testing.T) {
	ws := &fakeSocket{frames: make(chan []byte, 1024)}
	c := NewConnection(1, ws, 16)
	c.Start()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Send([]byte("x"))
			}
		}()
	}
	c.Close(1000, "race")
	wg.Wait()
}
