package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arklim/social-platform-feed/internal/core/port"
	"github.com/arklim/social-platform-feed/internal/infra/config"
	"github.com/arklim/social-platform-feed/internal/infra/database"
	kafkainfra "github.com/arklim/social-platform-feed/internal/infra/kafka"
	"github.com/arklim/social-platform-feed/internal/infra/logger"
	redisinfra "github.com/arklim/social-platform-feed/internal/infra/redis"
	"github.com/arklim/social-platform-feed/internal/infra/security"
	"github.com/arklim/social-platform-feed/internal/infra/telemetry"
	"github.com/arklim/social-platform-feed/internal/realtime"
	postgresrepo "github.com/arklim/social-platform-feed/internal/repository/postgres"
	redisrepo "github.com/arklim/social-platform-feed/internal/repository/redis"
	"github.com/arklim/social-platform-feed/internal/transport/http/middleware"
	"github.com/arklim/social-platform-feed/internal/transport/http/routes"
	"github.com/arklim/social-platform-feed/internal/usecase"
)

// Application wires the feed synchronization service together.
type Application struct {
	cfg           *config.AppConfig
	engine        *gin.Engine
	logger        *zap.Logger
	pool          *pgxpool.Pool
	redis         *redisinfra.Client
	producer      *kafkainfra.Producer
	consumerGroup sarama.ConsumerGroup
	consumer      *kafkainfra.ConsumerGroupHandler
	topics        []string
}

// New assembles the application from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	verifier, err := security.NewAccessTokenVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token verifier: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	profileRepo := postgresrepo.NewProfileRepository(pool)
	postRepo := postgresrepo.NewPostRepository(pool)
	interactionRepo := postgresrepo.NewInteractionRepository(pool)
	notificationRepo := postgresrepo.NewNotificationRepository(pool)
	unreadStore := redisrepo.NewUnreadStore(redisClient.Client(), cfg.Redis.UnreadPrefix)

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitStore(redisClient.Client(), rateLimitWindow*2)
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	hub := realtime.NewHub(log,
		realtime.WithBufferSize(cfg.Realtime.SendBufferSize),
		realtime.WithDeliveredCounter(metrics.NotificationsDelivered()),
	)

	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
		consumerGroup  sarama.ConsumerGroup
		consumer       *kafkainfra.ConsumerGroupHandler
	)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, interaction events disabled", zap.Error(err))
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
		}

		consumerGroup, err = newConsumerGroup(cfg.Kafka)
		if err != nil {
			log.Warn("failed to init kafka consumer group, notifications run pull-only", zap.Error(err))
		} else {
			notificationConsumer := kafkainfra.NewNotificationConsumer(profileRepo, notificationRepo, unreadStore, hub, log)
			consumer = kafkainfra.NewConsumerGroupHandler(notificationConsumer, log)
		}
	} else {
		log.Info("kafka brokers not configured, interaction events disabled")
	}

	profileService := usecase.NewProfileService(profileRepo, postRepo, interactionRepo, log)
	interactionService := usecase.NewInteractionService(interactionRepo, eventPublisher, log)
	notificationService := usecase.NewNotificationService(notificationRepo, unreadStore, log)

	guard := middleware.NewSessionGuard(verifier, middleware.CookieSettings{
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.Auth.CookieSecure,
	}, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: cfg.Telemetry.MetricsNamespace,
	})
	if err != nil {
		_ = redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		Guard:       guard,
		RateLimiter: rateLimiter,
		Metrics:     httpMetrics,
		Hub:         hub,
		Database:    pool,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Profiles:      profileService,
			Interactions:  interactionService,
			Notifications: notificationService,
		},
	})

	return &Application{
		cfg:           cfg,
		engine:        engine,
		logger:        log,
		pool:          pool,
		redis:         redisClient,
		producer:      producer,
		consumerGroup: consumerGroup,
		consumer:      consumer,
		topics:        []string{kafkainfra.InteractionTopic(cfg.Kafka)},
	}, nil
}

// Run serves HTTP and the notification consumer until the context is canceled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.pool != nil {
			a.pool.Close()
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	consumerErrCh := make(chan error, 1)
	if a.consumerGroup != nil && a.consumer != nil {
		go func() {
			defer func() {
				_ = a.consumerGroup.Close()
			}()
			for {
				if err := a.consumerGroup.Consume(ctx, a.topics, a.consumer); err != nil {
					if errors.Is(err, sarama.ErrClosedConsumerGroup) {
						return
					}
					a.logger.Error("consumer group session ended", zap.Error(err))
					consumerErrCh <- fmt.Errorf("run consumer group: %w", err)
					return
				}
				if ctx.Err() != nil {
					return
				}
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting feed API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	case err := <-consumerErrCh:
		return err
	}
}

func newConsumerGroup(cfg config.KafkaSettings) (sarama.ConsumerGroup, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_5_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = false

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	return group, nil
}
