package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/boehs/truthsocial/config"
	"github.com/boehs/truthsocial/internal/api"
	"github.com/boehs/truthsocial/internal/api/handler"
	"github.com/boehs/truthsocial/internal/feed"
	"github.com/boehs/truthsocial/internal/mailer"
	"github.com/boehs/truthsocial/internal/queue"
	"github.com/boehs/truthsocial/internal/repository"
	"github.com/boehs/truthsocial/internal/service"
	"github.com/boehs/truthsocial/internal/streaming"
	"github.com/boehs/truthsocial/pkg/database"
	"github.com/boehs/truthsocial/pkg/logger"
	"github.com/boehs/truthsocial/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Sentry.DSN); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "truthsocial", cfg.Otel.Endpoint)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		return
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	accountRepo := repository.NewAccountRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	followRepo := repository.NewFollowRepository(db)
	fanRepo := repository.NewFanRepository(db)
	listRepo := repository.NewListRepository(db)
	relRepo := repository.NewRelationshipRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	convRepo := repository.NewConversationRepository(db)

	sink := feed.NewGormSink(db)
	followerCache := feed.NewFollowerCache(db, rdb, cfg.Notify.FollowerCacheTTL)
	pub := streaming.NewRedisPublisher(rdb)

	q := queue.New(cfg.Fanout.QueueSize, cfg.Fanout.Workers, cfg.Fanout.PushRateLimit)

	var mail mailer.Mailer = mailer.NopMailer{}
	if cfg.Notify.PostmarkToken != "" {
		mail = mailer.NewPostmarkMailer(cfg.Notify.PostmarkToken, cfg.Notify.EmailFrom)
	}

	aggregator := service.NewGroupNotificationsService(db)
	notify := service.NewNotifyService(
		accountRepo, statusRepo, followRepo, relRepo, notifRepo, convRepo,
		aggregator, pub, mail, q,
		cfg.Fanout.WhaleThreshold, cfg.Notify.EmailDelay,
	)
	fanout := service.NewFanOutService(
		accountRepo, statusRepo, fanRepo, listRepo, convRepo,
		sink, followerCache, q, pub,
		cfg.Fanout.BatchSize, cfg.Fanout.WhaleThreshold,
	)
	publisher := service.NewPublisher(db, fanout, notify)

	q.Register(service.JobFeedInsert, fanout.HandleFeedInsert)
	q.Register(service.JobWhaleFeed, fanout.HandleWhaleFeed)
	q.Register(service.JobReblogRemoval, fanout.HandleReblogRemoval)
	q.Register(service.JobEmail, notify.HandleEmail)
	stopQueue := q.Start()
	defer func() { _ = stopQueue(context.Background()) }()

	replicator := service.NewFanReplicator(fanRepo, cfg.Fanout.QueueSize)
	stopReplicator := replicator.Start(cfg.Fanout.Workers)
	defer func() { _ = stopReplicator(context.Background()) }()

	relService := service.NewRelationshipService(accountRepo, followRepo, fanRepo, relRepo, replicator, followerCache)

	h := handler.New(relService, publisher, notifRepo)
	r := api.NewRouter(cfg.Server.Mode, h)

	logger.Info("server starting", zap.String("addr", cfg.Server.Addr))
	go func() {
		if err := r.Run(cfg.Server.Addr); err != nil {
			logger.Error("server exited", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
}
