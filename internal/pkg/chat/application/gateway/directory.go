package gateway

import (
	"context"

	"go.uber.org/zap"

	"go-messenger/internal/infrastructure/logging"
	"go-messenger/internal/infrastructure/realtime"
	"go-messenger/internal/pkg/chat/application/usecase"
)

// DirectoryRefresher recomputes and pushes the conversation list of each user.
// Implementations log failures instead of returning them: the mutation that
// triggered the refresh has already committed.
type DirectoryRefresher interface {
	Refresh(ctx context.Context, userIDs []int64)
}

// DirectoryPusher refreshes inline, pushing only to users with live connections.
type DirectoryPusher struct {
	registry *realtime.Registry
	list     *usecase.ListConversationsUseCase
	log      *zap.Logger
}

func NewDirectoryPusher(registry *realtime.Registry, list *usecase.ListConversationsUseCase, log *zap.Logger) *DirectoryPusher {
	return &DirectoryPusher{registry: registry, list: list, log: logging.OrNop(log).Named("directory")}
}

func (p *DirectoryPusher) Refresh(ctx context.Context, userIDs []int64) {
	for _, userID := range p.registry.Online(dedupe(userIDs)) {
		summaries, err := p.list.Execute(ctx, usecase.ListConversationsInput{UserID: userID})
		if err != nil {
			p.log.Warn("directory refresh failed", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		payload, err := encode(EventConversationUpdated, summaries)
		if err != nil {
			p.log.Error("encode directory", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		p.registry.NotifyUser(userID, payload)
	}
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
