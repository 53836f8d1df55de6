/**
 * @description
 * This is the main entry point for the donation worker. It is a non-HTTP,
 * long-running process with two responsibilities: consuming donation
 * lifecycle events from RabbitMQ to send donor and owner emails, and running
 * the cron job that expires abandoned pending donations.
 */

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/freedomfund/donation-service/internal/app"
	"github.com/freedomfund/donation-service/internal/config"
	"github.com/freedomfund/donation-service/internal/mailer"
	"github.com/freedomfund/donation-service/internal/store"
	"github.com/freedomfund/donation-service/internal/worker"
	"github.com/freedomfund/donation-service/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewPostgresRepository(dbpool)

	sender := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.FromEmail,
	})
	donationMailer := mailer.NewDonationMailer(sender, repository, cfg.OwnerEmail)

	pendingMaxAge := time.Duration(cfg.PendingExpiryHours) * time.Hour
	jobs := worker.NewJobs(repository, donationMailer, logger, pendingMaxAge)

	consumer, err := rabbitmq.NewConsumer(cfg.RabbitMQURL)
	if err != nil {
		logger.Error("rabbitmq consumer init failed", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	bindings := map[string]func([]byte) bool{
		app.RoutingKeyDonationCompleted: jobs.HandleDonationCompleted,
	}
	if err := consumer.ConsumeWithBindings(app.DonationEventExchange, cfg.DonationEventQueue, bindings); err != nil {
		logger.Error("donation event consumer start failed", "error", err)
		os.Exit(1)
	}
	logger.Info("donation event consumer started", "queue", cfg.DonationEventQueue)

	scheduler := worker.NewScheduler(jobs, logger, cfg.ExpiryJobSchedule)
	scheduler.Start()
	logger.Info("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	logger.Info("worker stopped gracefully")
}
