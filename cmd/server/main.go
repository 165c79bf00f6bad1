package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"blog-api/internal/auth"
	"blog-api/internal/config"
	apphttp "blog-api/internal/http"
	"blog-api/internal/mailer"
	"blog-api/internal/repository"
	"blog-api/internal/repository/mongodb"
	"blog-api/internal/repository/sqlite"
	"blog-api/internal/service"
	"blog-api/internal/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, blogs, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer closeStore()

	if err := users.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := blogs.Init(ctx); err != nil {
		logger.Fatalf("init blog repository: %v", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.SessionTTL())
	if err != nil {
		logger.Fatalf("token service: %v", err)
	}
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	sender, err := buildSender(cfg, logger)
	if err != nil {
		logger.Fatalf("setup mail: %v", err)
	}
	dispatcher := mailer.NewDispatcher(mailer.Config{
		Workers:   cfg.Mail.Workers,
		QueueSize: cfg.Mail.QueueSize,
		Logger:    logger,
	}, sender)
	dispatcher.Start(ctx)
	notifier := mailer.NewNotifier(dispatcher, cfg.Mail.BaseURL)

	archiver, err := buildArchiver(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup archive: %v", err)
	}

	accountService := service.NewAccountService(users, tokens, hasher, notifier, logger)
	blogService := service.NewBlogService(blogs, users, archiver, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	apphttp.NewHandler(accountService, blogService, tokens, logger).RegisterRoutes(router)

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
	dispatcher.Shutdown()

	logger.Info("bye")
}

func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.UserRepository, repository.BlogRepository, func(), error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using mongodb database %s", cfg.Database.Name)
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("mongodb disconnect: %v", err)
			}
		}
		return mongodb.NewUserRepository(db), mongodb.NewBlogRepository(db), closeFn, nil
	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Infof("using sqlite database %s", cfg.Database.Path)
		return sqlite.NewUserRepository(db), sqlite.NewBlogRepository(db), func() { db.Close() }, nil
	}
}

func buildSender(cfg config.Config, logger *logrus.Logger) (mailer.Sender, error) {
	if cfg.Mail.Host == "" {
		logger.Warn("mail host not set, verification mails will only be logged")
		return mailer.LogSender{Logger: logger}, nil
	}

	sender, err := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	})
	if err != nil {
		return nil, err
	}
	logger.Infof("sending mail through %s:%d", cfg.Mail.Host, cfg.Mail.Port)
	return sender, nil
}

// buildArchiver returns nil when no bucket is configured; deleted blogs are
// then dropped without a snapshot.
func buildArchiver(ctx context.Context, cfg config.Config, logger *logrus.Logger) (service.BlogArchiver, error) {
	if cfg.Archive.Bucket == "" {
		return nil, nil
	}

	client, err := storage.NewS3Client(ctx, storage.S3Options{
		Region:   cfg.Archive.Region,
		Endpoint: cfg.Archive.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	logger.Infof("archiving deleted blogs to s3 bucket %s (region %s)", cfg.Archive.Bucket, cfg.Archive.Region)
	return storage.NewBlogArchiver(storage.NewS3Service(client), cfg.Archive.Bucket, cfg.Archive.Prefix), nil
}
