package adapter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

func seedConversation(t *testing.T, r *MemoryChatRepository, isGroup bool, users ...int64) string {
	t.Helper()
	ctx := context.Background()
	conv, err := r.CreateConversation(ctx, isGroup)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	for _, u := range users {
		if _, err := r.CreateParticipant(ctx, conv.ID, u); err != nil {
			t.Fatalf("CreateParticipant(%d): %v", u, err)
		}
	}
	return conv.ID
}

func TestMemoryRepo_ListMessagesVisitsEveryMessageOnce(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	alice := r.AddUser("alice")
	convID := seedConversation(t, r, false, alice.ID)
	for i := 0; i < 47; i++ {
		if _, err := r.CreateMessage(ctx, chat.Message{ConversationID: convID, SenderID: alice.ID, Content: "m"}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	seen := make(map[int64]bool)
	var before int64
	for {
		batch, err := r.ListMessages(ctx, convID, before, 10)
		if err != nil {
			t.Fatalf("ListMessages: %v", err)
		}
		if len(batch) == 0 {
			break
		}
		for i, m := range batch {
			if seen[m.ID] {
				t.Fatalf("message %d returned twice", m.ID)
			}
			seen[m.ID] = true
			if i > 0 && m.ID >= batch[i-1].ID {
				t.Fatalf("batch not newest-first: %d after %d", m.ID, batch[i-1].ID)
			}
			if m.Sender.Username != "alice" {
				t.Fatalf("sender not hydrated: %+v", m.Sender)
			}
		}
		before = batch[len(batch)-1].ID
	}
	if len(seen) != 47 {
		t.Fatalf("visited %d messages, want 47", len(seen))
	}
}

func TestMemoryRepo_ConcurrentCreateParticipantKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	a, b := r.AddUser("a"), r.AddUser("b")
	convID := seedConversation(t, r, true, a.ID)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.InTx(ctx, func(tx repository.ChatRepository) error {
				_, err := tx.CreateParticipant(ctx, convID, b.ID)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, chat.ErrAlreadyParticipant):
			conflicts++
		default:
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 || conflicts != 7 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and 7", ok, conflicts)
	}
	ps, _ := r.ListParticipants(ctx, convID)
	if len(ps) != 2 {
		t.Fatalf("participants = %d, want 2", len(ps))
	}
}

func TestMemoryRepo_InTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	a := r.AddUser("a")
	boom := errors.New("boom")

	err := r.InTx(ctx, func(tx repository.ChatRepository) error {
		conv, err := tx.CreateConversation(ctx, false)
		if err != nil {
			return err
		}
		if _, err := tx.CreateParticipant(ctx, conv.ID, a.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}
	if n := r.ConversationCount(); n != 0 {
		t.Fatalf("conversations after rollback = %d", n)
	}
}

func TestMemoryRepo_DirectoryOrderAndLastMessage(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	a, b, c := r.AddUser("a"), r.AddUser("b"), r.AddUser("c")
	older := seedConversation(t, r, false, a.ID, b.ID)
	newer := seedConversation(t, r, false, a.ID, c.ID)

	if _, err := r.CreateMessage(ctx, chat.Message{ConversationID: older, SenderID: b.ID, Content: "ping"}); err != nil {
		t.Fatal(err)
	}
	if err := r.TouchConversation(ctx, older, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	list, err := r.ListUserConversations(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListUserConversations: %v", err)
	}
	if len(list) != 2 || list[0].ConversationID != older || list[1].ConversationID != newer {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[0].LastMessage == nil || list[0].LastMessage.Content != "ping" || list[0].LastMessage.Sender.Username != "b" {
		t.Fatalf("last message = %+v", list[0].LastMessage)
	}
	if list[1].LastMessage != nil {
		t.Fatalf("empty conversation has last message %+v", list[1].LastMessage)
	}
	if len(list[0].Participants) != 2 {
		t.Fatalf("participants = %+v", list[0].Participants)
	}

	none, err := r.ListUserConversations(ctx, 999)
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("stranger list = %v, %v", none, err)
	}
}

func TestMemoryRepo_DeleteConversationCascades(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	a, b := r.AddUser("a"), r.AddUser("b")
	convID := seedConversation(t, r, false, a.ID, b.ID)
	if _, err := r.CreateMessage(ctx, chat.Message{ConversationID: convID, SenderID: a.ID, Content: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := r.DeleteConversation(ctx, convID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if err := r.DeleteConversation(ctx, convID); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
	if p, _ := r.FindParticipant(ctx, convID, a.ID); p != nil {
		t.Fatal("participant survived delete")
	}
	if n := r.MessageCount(convID); n != 0 {
		t.Fatalf("messages survived delete: %d", n)
	}
}

func TestMemoryRepo_FindDirectConversationIgnoresGroups(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryChatRepository()
	a, b, c := r.AddUser("a"), r.AddUser("b"), r.AddUser("c")
	seedConversation(t, r, true, a.ID, b.ID, c.ID)

	if conv, err := r.FindDirectConversation(ctx, a.ID, b.ID); err != nil || conv != nil {
		t.Fatalf("found %+v, %v; want none", conv, err)
	}
	direct := seedConversation(t, r, false, a.ID, b.ID)
	conv, err := r.FindDirectConversation(ctx, b.ID, a.ID)
	if err != nil || conv == nil || conv.ID != direct {
		t.Fatalf("found %+v, %v; want %s", conv, err, direct)
	}
}
