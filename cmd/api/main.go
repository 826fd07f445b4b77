package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "go-messenger/cmd/api/router/v1"
	"go-messenger/internal/config"
	"go-messenger/internal/infrastructure/auth"
	cacheAdapter "go-messenger/internal/infrastructure/cache/adapter"
	cport "go-messenger/internal/infrastructure/cache/port"
	"go-messenger/internal/infrastructure/database"
	"go-messenger/internal/infrastructure/logging"
	queueAdapter "go-messenger/internal/infrastructure/queue/adapter"
	"go-messenger/internal/infrastructure/realtime"
	"go-messenger/internal/pkg/chat/application/gateway"
	"go-messenger/internal/pkg/chat/application/task"
	"go-messenger/internal/pkg/chat/application/usecase"
	repoAdapter "go-messenger/internal/pkg/chat/persistence/repository/adapter"
	repository "go-messenger/internal/pkg/chat/persistence/repository/port"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open chat store", zap.Error(err))
	}
	defer closeRepo()

	var cache cport.Cache
	if cfg.UsesRedis() {
		rc, err := cacheAdapter.NewRedisCache(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, user lookups are uncached", zap.Error(err))
		} else {
			defer rc.Close()
			cache = rc
		}
	}

	users := usecase.NewLookupUserUseCase(repo, cache, cfg.UserCacheTTL)
	ucs := gateway.UseCases{
		Join:          usecase.NewJoinConversationUseCase(repo),
		Add:           usecase.NewAddParticipantUseCase(repo, users),
		Remove:        usecase.NewRemoveParticipantUseCase(repo),
		Send:          usecase.NewSendMessageUseCase(repo),
		Start:         usecase.NewStartConversationUseCase(repo, users),
		Create:        usecase.NewCreateConversationUseCase(repo, users),
		Delete:        usecase.NewDeleteConversationUseCase(repo),
		Page:          usecase.NewGetMessagePageUseCase(repo, cfg.PageDefaultLimit, cfg.PageMaxLimit),
		Conversations: usecase.NewListConversationsUseCase(repo),
		Participants:  usecase.NewListParticipantsUseCase(repo),
	}

	registry := realtime.NewRegistry()
	pusher := gateway.NewDirectoryPusher(registry, ucs.Conversations, logger)
	var refresher gateway.DirectoryRefresher = pusher

	if cfg.DirectoryRefreshAsync {
		client, err := queueAdapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			logger.Fatal("asynq client", zap.Error(err))
		}
		defer client.Close()

		worker, err := queueAdapter.NewAsynqServer(cfg.RedisURL, queueAdapter.ServerConfig{
			Concurrency: cfg.AsynqConcurrency,
			Queues:      map[string]int{task.DirectoryQueue: 1},
			Log:         logger,
		})
		if err != nil {
			logger.Fatal("asynq server", zap.Error(err))
		}
		task.RegisterRefreshDirectoryTask(worker, pusher)
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("asynq server stopped", zap.Error(err))
			}
		}()
		refresher = task.NewQueuedRefresher(client, pusher, logger)
	}

	gw := gateway.New(registry, auth.NewVerifier(cfg.JWTSecret), ucs, gateway.Options{
		Log:        logger,
		Refresher:  refresher,
		SendBuffer: cfg.WSSendBuffer,
	})

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(logger))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, gw, logger)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("store", cfg.ChatStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	gw.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func openRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.ChatRepository, func(), error) {
	if cfg.ChatStore == config.StoreMemory {
		repo := repoAdapter.NewMemoryChatRepository()
		for _, name := range cfg.MemorySeedUsers {
			u := repo.AddUser(name)
			logger.Info("seeded user", zap.Int64("id", u.ID), zap.String("username", u.Username))
		}
		return repo, func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DBUrl, "up", logger); err != nil {
			return nil, nil, err
		}
	}
	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := database.Connect(connectCtx, cfg.DBUrl)
	if err != nil {
		return nil, nil, err
	}
	return repoAdapter.NewPgChatRepository(pool), pool.Close, nil
}
