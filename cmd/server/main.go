package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bounty-board/internal/config"
	"bounty-board/internal/events"
	apphttp "bounty-board/internal/http"
	"bounty-board/internal/mailer"
	"bounty-board/internal/metrics"
	"bounty-board/internal/ratelimit"
	"bounty-board/internal/repository"
	"bounty-board/internal/repository/mongodb"
	"bounty-board/internal/repository/sqlite"
	"bounty-board/internal/scheduler"
	"bounty-board/internal/service"
	"bounty-board/internal/storage"
)

type stores struct {
	users         repository.UserRepository
	verifications repository.VerificationRepository
	bounties      repository.BountyRepository
	submissions   repository.SubmissionRepository
	close         func(context.Context) error
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	configureLogger(logger, cfg)

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			logger.Warnf("close database: %v", err)
		}
	}()

	mail, err := mailer.New(mailer.Config{
		Provider:      cfg.Mail.Provider,
		From:          cfg.Mail.From,
		FromName:      cfg.Mail.FromName,
		MailerSendKey: cfg.Mail.MailerSendKey,
		SMTPHost:      cfg.Mail.SMTPHost,
		SMTPPort:      cfg.Mail.SMTPPort,
		SMTPUser:      cfg.Mail.SMTPUser,
		SMTPPass:      cfg.Mail.SMTPPass,
	}, logger)
	if err != nil {
		logger.Fatalf("setup mailer: %v", err)
	}

	limiter, err := buildLimiter(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup rate limiter: %v", err)
	}

	publisher, err := buildPublisher(cfg, logger)
	if err != nil {
		logger.Fatalf("setup events: %v", err)
	}
	defer publisher.Close()

	storageSvc, err := buildStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup storage: %v", err)
	}

	m := metrics.New()

	userService := service.NewUserService(st.users)
	verificationService := service.NewVerificationService(st.users, st.verifications, mail, service.VerificationConfig{
		ClientURL:   cfg.Verification.ClientURL,
		TTL:         cfg.Verification.TTL,
		ExposeToken: cfg.Verification.ExposeToken,
		Limiter:     limiter,
		Metrics:     m,
		Logger:      logger,
	})
	bountyService := service.NewBountyService(st.bounties, st.submissions, st.users, service.BountyConfig{
		Storage: storageSvc,
		Events:  publisher,
		Metrics: m,
		Logger:  logger,
	})

	sched, err := scheduler.New(logger)
	if err != nil {
		logger.Fatalf("setup scheduler: %v", err)
	}
	if err := sched.ScheduleSweep(verificationService, cfg.Verification.SweepInterval); err != nil {
		logger.Fatalf("schedule sweep: %v", err)
	}
	sched.Start()

	tokens, err := apphttp.NewTokenIssuer(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if err != nil {
		logger.Fatalf("setup auth: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, verificationService, bountyService, tokens, m, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}
	if err := sched.Shutdown(); err != nil {
		logger.Warnf("scheduler shutdown: %v", err)
	}

	logger.Info("bye")
}

func configureLogger(logger *logrus.Logger, cfg config.Config) {
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func openStores(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*stores, error) {
	var st *stores
	switch cfg.Database.Driver {
	case "", "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		st = &stores{
			users:         sqlite.NewUserRepository(db),
			verifications: sqlite.NewVerificationRepository(db),
			bounties:      sqlite.NewBountyRepository(db),
			submissions:   sqlite.NewSubmissionRepository(db),
			close:         func(context.Context) error { return db.Close() },
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
	case "mongo", "mongodb":
		client, err := mongodb.Connect(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Database.MongoDB)
		st = &stores{
			users:         mongodb.NewUserRepository(db),
			verifications: mongodb.NewVerificationRepository(db),
			bounties:      mongodb.NewBountyRepository(db),
			submissions:   mongodb.NewSubmissionRepository(client, db),
			close:         client.Disconnect,
		}
		logger.Infof("using mongodb database %s", cfg.Database.MongoDB)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	inits := []struct {
		name string
		init func(context.Context) error
	}{
		{"user", st.users.Init},
		{"verification", st.verifications.Init},
		{"bounty", st.bounties.Init},
		{"submission", st.submissions.Init},
	}
	for _, r := range inits {
		if err := r.init(ctx); err != nil {
			_ = st.close(ctx)
			return nil, fmt.Errorf("init %s repository: %w", r.name, err)
		}
	}
	return st, nil
}

func buildLimiter(ctx context.Context, cfg config.Config, logger *logrus.Logger) (ratelimit.Limiter, error) {
	if cfg.Redis.Addr == "" {
		logger.Info("redis not configured, verification emails are not rate limited")
		return ratelimit.Unlimited{}, nil
	}
	client, err := ratelimit.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	logger.Infof("rate limiting verification emails via redis %s", cfg.Redis.Addr)
	return ratelimit.NewRedisLimiter(client, "bounty:ratelimit", cfg.Verification.RateLimit, cfg.Verification.RateWindow), nil
}

func buildPublisher(cfg config.Config, logger *logrus.Logger) (events.Publisher, error) {
	switch cfg.Events.Driver {
	case "", "none":
		return events.Nop{}, nil
	case "nats":
		logger.Infof("publishing events to nats %s", cfg.Events.NATSURL)
		return events.NewNATSPublisher(cfg.Events.NATSURL)
	case "kafka":
		logger.Infof("publishing events to kafka topic %s", cfg.Events.KafkaTopic)
		return events.NewKafkaPublisher(cfg.Events.KafkaBrokers, cfg.Events.KafkaTopic), nil
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		logger.Info("storage bucket not configured, submission archives disabled")
		return nil, nil
	}

	svc, err := storage.NewS3ServiceFromConfig(ctx, storage.S3Config{
		Bucket:    cfg.Storage.Bucket,
		KeyPrefix: cfg.Storage.KeyPrefix,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		Profile:   cfg.AWS.Profile,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("using s3 bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return svc, nil
}
