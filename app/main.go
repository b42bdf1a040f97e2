package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/quillpost/internal/authservice"
	"github.com/sushihentaime/quillpost/internal/backend"
	"github.com/sushihentaime/quillpost/internal/backend/appwrite"
	"github.com/sushihentaime/quillpost/internal/backend/memory"
	"github.com/sushihentaime/quillpost/internal/backend/s3bucket"
	"github.com/sushihentaime/quillpost/internal/cleanupservice"
	"github.com/sushihentaime/quillpost/internal/common"
	"github.com/sushihentaime/quillpost/internal/contentservice"
	"github.com/sushihentaime/quillpost/internal/mailservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	cache          *common.Cache
	authService    *authservice.AuthService
	contentService *contentservice.ContentService
	cleanupService *cleanupservice.CleanupService
	mailService    *mailservice.MailService
	broker         *common.MessageBroker
}

// drivers are the backend implementations selected by configuration, plus
// the bucket id the storage driver expects.
type drivers struct {
	accounts  backend.Accounts
	databases backend.Databases
	storage   backend.Storage
	bucketID  string
}

func newDrivers(ctx context.Context, cfg *Config) (*drivers, error) {
	d := &drivers{bucketID: cfg.AppwriteBucketID}

	switch cfg.BackendDriver {
	case "memory":
		m := memory.New()
		d.accounts, d.databases, d.storage = m, m, m
	case "appwrite":
		c := appwrite.NewClient(appwrite.Config{
			Endpoint:  cfg.AppwriteEndpoint,
			ProjectID: cfg.AppwriteProjectID,
			APIKey:    cfg.AppwriteAPIKey,
			Timeout:   15 * time.Second,
		})
		d.accounts, d.databases, d.storage = c, c, c
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.BackendDriver)
	}

	if cfg.StorageDriver == "s3" {
		s, err := s3bucket.New(ctx, s3bucket.Config{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		d.storage = s
		d.bucketID = cfg.S3Bucket
	}

	return d, nil
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	d, err := newDrivers(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to set up the backend", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the database and apply the ledger migrations
	dbURI := common.PostgresURI(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName)
	db, err := common.NewDB(dbURI, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	if _, err := common.Migrate("file://migrations", dbURI); err != nil {
		logger.Error("failed to migrate the database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the message broker
	broker, err := common.NewMessageBroker(common.AMQPURI(cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort))
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	err = common.SetupExchanges(broker)
	if err != nil {
		logger.Error("failed to set up the exchanges", slog.String("error", err.Error()))
		os.Exit(1)
	}

	mailService, err := mailservice.NewMailService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailPort, logger)
	if err != nil {
		logger.Error("failed to load the email templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cleanup := cleanupservice.NewCleanupService(db, broker, broker, d.storage, cleanupservice.Config{
		BucketID: d.bucketID,
		Grace:    cfg.CleanupGrace,
	}, logger)

	app := &application{
		config:      cfg,
		logger:      logger,
		cache:       common.NewCache(cfg.SessionCacheTTL, 10*time.Minute),
		authService: authservice.NewAuthService(d.accounts, broker, logger),
		contentService: contentservice.NewContentService(d.databases, d.storage, cleanup, contentservice.Config{
			DatabaseID:     cfg.AppwriteDatabaseID,
			CollectionID:   cfg.AppwriteCollectionID,
			BucketID:       d.bucketID,
			MaxUploadBytes: cfg.MaxUploadBytes,
		}, logger),
		cleanupService: cleanup,
		mailService:    mailService,
		broker:         broker,
	}

	// Initialize the consumers and the sweep
	app.mailService.SendWelcomeEmail()
	app.cleanupService.Run()

	err = app.cleanupService.StartSweeper(cfg.CleanupSchedule)
	if err != nil {
		logger.Error("failed to schedule the file sweep", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
