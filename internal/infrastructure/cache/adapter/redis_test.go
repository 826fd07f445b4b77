package adapter

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go-messenger/internal/infrastructure/cache/port"
)

func TestRedisCache_Integration(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skipf("REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer c.Close()

	key := "test:cache:" + time.Now().Format(time.RFC3339Nano)
	if _, err := c.Get(ctx, key); !errors.Is(err, port.ErrMiss) {
		t.Fatalf("want ErrMiss, got %v", err)
	}
	if err := c.Set(ctx, key, "alice", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, err := c.Get(ctx, key); err != nil || v != "alice" {
		t.Fatalf("get = %q, %v", v, err)
	}
	if err := c.Set(ctx, key, "", -1); err != nil {
		t.Fatalf("set without ttl: %v", err)
	}
	if v, err := c.Get(ctx, key); err != nil || v != "" {
		t.Fatalf("get after overwrite = %q, %v", v, err)
	}
}

func TestNewRedisCache_RejectsEmptyURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty url")
	}
}
