package adapter

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/database"
	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

// newPgRepo runs against a real database; set DB_URL to enable.
func newPgRepo(t *testing.T) (*PgChatRepository, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		t.Skipf("DB_URL not set; skipping postgres integration test")
	}
	if err := database.Migrate(dsn, "up", zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewPgChatRepository(pool), pool
}

func insertUser(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	name := "u-" + uuid.NewString()
	var id int64
	err := pool.QueryRow(context.Background(), `
		INSERT INTO chat.users (username, email, password)
		VALUES ($1, $2, 'x')
		RETURNING id
	`, name, name+"@example.test").Scan(&id)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return id
}

func TestPgRepo_MessagesAndPaging(t *testing.T) {
	r, pool := newPgRepo(t)
	ctx := context.Background()
	a, b := insertUser(t, pool), insertUser(t, pool)

	conv, err := r.CreateConversation(ctx, false)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	t.Cleanup(func() { _ = r.DeleteConversation(context.Background(), conv.ID) })
	for _, u := range []int64{a, b} {
		if _, err := r.CreateParticipant(ctx, conv.ID, u); err != nil {
			t.Fatalf("CreateParticipant: %v", err)
		}
	}
	for i := 0; i < 12; i++ {
		if _, err := r.CreateMessage(ctx, chat.Message{ConversationID: conv.ID, SenderID: a, Content: "m"}); err != nil {
			t.Fatalf("CreateMessage: %v", err)
		}
	}

	seen := 0
	var before int64
	for {
		batch, err := r.ListMessages(ctx, conv.ID, before, 5)
		if err != nil {
			t.Fatalf("ListMessages: %v", err)
		}
		if len(batch) == 0 {
			break
		}
		seen += len(batch)
		before = batch[len(batch)-1].ID
	}
	if seen != 12 {
		t.Fatalf("paged %d messages, want 12", seen)
	}

	direct, err := r.FindDirectConversation(ctx, b, a)
	if err != nil || direct == nil || direct.ID != conv.ID {
		t.Fatalf("FindDirectConversation = %+v, %v", direct, err)
	}

	list, err := r.ListUserConversations(ctx, b)
	if err != nil {
		t.Fatalf("ListUserConversations: %v", err)
	}
	if len(list) == 0 || list[0].LastMessage == nil {
		t.Fatalf("directory = %+v", list)
	}
}

func TestPgRepo_ConcurrentAddKeepsOneRow(t *testing.T) {
	r, pool := newPgRepo(t)
	ctx := context.Background()
	a, b := insertUser(t, pool), insertUser(t, pool)

	conv, err := r.CreateConversation(ctx, true)
	if err != nil {
		t.Fatalf("CreateConversation: %v", err)
	}
	t.Cleanup(func() { _ = r.DeleteConversation(context.Background(), conv.ID) })
	if _, err := r.CreateParticipant(ctx, conv.ID, a); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.InTx(ctx, func(tx repository.ChatRepository) error {
				_, err := tx.CreateParticipant(ctx, conv.ID, b)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		if err == nil {
			ok++
		} else if !errors.Is(err, chat.ErrAlreadyParticipant) {
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d inserts succeeded, want 1", ok)
	}
}

func TestPgRepo_UnknownIDsAreAbsent(t *testing.T) {
	r, _ := newPgRepo(t)
	ctx := context.Background()

	if p, err := r.FindParticipant(ctx, "not-a-uuid", 1); err != nil || p != nil {
		t.Fatalf("FindParticipant = %+v, %v", p, err)
	}
	if c, err := r.FindConversation(ctx, uuid.NewString()); err != nil || c != nil {
		t.Fatalf("FindConversation = %+v, %v", c, err)
	}
	if u, err := r.FindUser(ctx, -1); err != nil || u != nil {
		t.Fatalf("FindUser = %+v, %v", u, err)
	}
}
