package usecase

import (
	"context"
	"strconv"
	"time"

	cport "go-messenger/internal/infrastructure/cache/port"
	chat "go-messenger/internal/pkg/chat/application/domain"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

const userCacheKeyPrefix = "chat:user:"

// LookupUserInput identifies the user to resolve.
type LookupUserInput struct {
	UserID int64
}

// LookupUserUseCase resolves a user id to its identity, reading through the
// cache when one is configured. Users are immutable here, so cached entries
// never go stale; the TTL only bounds memory.
type LookupUserUseCase struct {
	Repo  repository.UserRepository
	Cache cport.Cache // optional
	TTL   time.Duration
}

func NewLookupUserUseCase(repo repository.UserRepository, cache cport.Cache, ttl time.Duration) *LookupUserUseCase {
	return &LookupUserUseCase{Repo: repo, Cache: cache, TTL: ttl}
}

// Execute returns chat.ErrUserNotFound when the user does not exist.
func (uc *LookupUserUseCase) Execute(ctx context.Context, in LookupUserInput) (*chat.User, error) {
	if in.UserID <= 0 {
		return nil, chat.ErrInvalidParticipant
	}
	key := userCacheKeyPrefix + strconv.FormatInt(in.UserID, 10)

	if uc.Cache != nil {
		// misses and cache errors fall through to the store
		if name, err := uc.Cache.Get(ctx, key); err == nil {
			return &chat.User{ID: in.UserID, Username: name}, nil
		}
	}

	u, err := uc.Repo.FindUser(ctx, in.UserID)
	if err != nil {
		return nil, storeErr(err)
	}
	if u == nil {
		return nil, chat.ErrUserNotFound
	}

	if uc.Cache != nil {
		_ = uc.Cache.Set(ctx, key, u.Username, uc.TTL)
	}
	return u, nil
}

// ensureUsers checks every id resolves to a user.
func (uc *LookupUserUseCase) ensureUsers(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		if _, err := uc.Execute(ctx, LookupUserInput{UserID: id}); err != nil {
			return err
		}
	}
	return nil
}
