package task

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/logging"
	qport "go-messenger/internal/infrastructure/queue/port"
	"go-messenger/internal/pkg/chat/application/gateway"
)

// RefreshDirectoryTaskType is the queue task name for pushing conversation lists.
const RefreshDirectoryTaskType = "chat:refresh_directory"

// DirectoryQueue is the asynq queue refresh tasks run on.
const DirectoryQueue = "directory"

// RefreshDirectoryTaskPayload is the JSON payload transported via the queue.
type RefreshDirectoryTaskPayload struct {
	UserIDs []int64 `json:"userIds"`
}

// QueuedRefresher hands directory refreshes to the background worker. When
// enqueueing fails it refreshes inline through fallback.
type QueuedRefresher struct {
	client   qport.Client
	fallback gateway.DirectoryRefresher
	log      *zap.Logger
}

func NewQueuedRefresher(client qport.Client, fallback gateway.DirectoryRefresher, log *zap.Logger) *QueuedRefresher {
	return &QueuedRefresher{client: client, fallback: fallback, log: logging.OrNop(log).Named("directory_queue")}
}

var _ gateway.DirectoryRefresher = (*QueuedRefresher)(nil)

func (q *QueuedRefresher) Refresh(ctx context.Context, userIDs []int64) {
	if len(userIDs) == 0 {
		return
	}
	payload, err := json.Marshal(RefreshDirectoryTaskPayload{UserIDs: userIDs})
	if err == nil {
		_, err = q.client.Enqueue(ctx,
			qport.Task{Type: RefreshDirectoryTaskType, Payload: payload},
			// a refresh is a snapshot; a retried one would be stale
			qport.EnqueueOption{Queue: DirectoryQueue, NoRetry: true},
		)
	}
	if err != nil {
		q.log.Warn("enqueue directory refresh failed, refreshing inline", zap.Error(err))
		if q.fallback != nil {
			q.fallback.Refresh(ctx, userIDs)
		}
	}
}

// RegisterRefreshDirectoryTask binds the task handler to the provided server.
// The handler pushes through refresher, normally a gateway.DirectoryPusher
// sharing the registry of this process.
func RegisterRefreshDirectoryTask(srv qport.Server, refresher gateway.DirectoryRefresher) {
	srv.Register(RefreshDirectoryTaskType, func(ctx context.Context, t qport.Task) error {
		var p RefreshDirectoryTaskPayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// malformed payload: enqueued with NoRetry, so it is dropped
			return err
		}

		// give DB a reasonable time budget per task execution
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		refresher.Refresh(ctx, p.UserIDs)
		return nil
	})
}
