package adapter

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"

	"go-messenger/internal/infrastructure/queue/port"
)

func TestToAsynqOptions(t *testing.T) {
	if got := toAsynqOptions(nil); len(got) != 0 {
		t.Fatalf("no options expected, got %v", got)
	}

	got := toAsynqOptions([]port.EnqueueOption{{Queue: "directory", NoRetry: true}})
	byType := map[asynq.OptionType]interface{}{}
	for _, o := range got {
		byType[o.Type()] = o.Value()
	}
	if byType[asynq.QueueOpt] != "directory" {
		t.Fatalf("queue = %v", byType[asynq.QueueOpt])
	}
	if byType[asynq.MaxRetryOpt] != 0 {
		t.Fatalf("max retry = %v, want 0", byType[asynq.MaxRetryOpt])
	}
	if len(got) != 2 {
		t.Fatalf("options = %d, want 2", len(got))
	}

	if got := toAsynqOptions([]port.EnqueueOption{{}}); len(got) != 0 {
		t.Fatalf("zero option should map to nothing, got %v", got)
	}
}

func TestNewAsynqServer_NilLoggerAndDefaults(t *testing.T) {
	srv, err := NewAsynqServer("redis://localhost:6379/0", ServerConfig{})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv.Register("noop", func(context.Context, port.Task) error { return nil })

	if _, err := NewAsynqServer("", ServerConfig{}); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestRedisOpt(t *testing.T) {
	if _, err := redisOpt(""); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := redisOpt("redis://localhost:6379/2"); err != nil {
		t.Fatalf("redisOpt: %v", err)
	}
}
