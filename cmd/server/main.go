/**
 * @description
 * This is the main entry point for the donation service HTTP server. It is
 * responsible for initializing all components of the service, including
 * configuration, the database connection, the Stripe client, broker and
 * cache connections, repositories, the application services, and the HTTP
 * server. It wires everything together and starts the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/jackc/pgx/v5: PostgreSQL driver.
 * - github.com/redis/go-redis/v9: Rate limiter backend.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages for the service.
 * - pkg/stripeclient: Client for the Stripe API.
 * - pkg/rabbitmq: Client for RabbitMQ.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/freedomfund/donation-service/internal/api"
	"github.com/freedomfund/donation-service/internal/app"
	"github.com/freedomfund/donation-service/internal/config"
	"github.com/freedomfund/donation-service/internal/store"
	"github.com/freedomfund/donation-service/pkg/rabbitmq"
	"github.com/freedomfund/donation-service/pkg/stripeclient"
)

func main() {
	// Load a local .env file if present; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if strings.TrimSpace(cfg.TokenSigningKey) == "" {
		log.Fatalf("level=fatal component=bootstrap msg=\"token signing key must be configured\" env=TOKEN_SIGNING_KEY")
	}

	// Platform-provided PORT wins over the configured default.
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.ServerPort = port
	}

	log.Printf("level=info component=bootstrap msg=\"starting donation-service\" port=%s", cfg.ServerPort)

	// Establish a connection pool to the PostgreSQL database.
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database url parse failed\" err=%v", err)
	}
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute

	// Disable prepared statement caching to prevent conflicts behind poolers.
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"database connection failed\" err=%v", err)
	}
	defer dbpool.Close()
	log.Println("level=info component=bootstrap msg=\"database connected\"")

	// Ensure required tables exist (idempotent).
	if _, err := dbpool.Exec(context.Background(), store.Schema); err != nil {
		log.Printf("level=warn component=bootstrap msg=\"failed ensuring tables (may already exist)\" err=%v", err)
	}

	// Initialize the RabbitMQ producer; email delivery degrades without it.
	rabbitProducer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		log.Printf("level=warn component=bootstrap msg=\"rabbitmq producer unavailable; donation emails disabled\" err=%v", err)
		rabbitProducer = nil
	} else {
		defer rabbitProducer.Close()
		log.Println("level=info component=bootstrap msg=\"rabbitmq producer connected\"")
	}

	// Initialize the Stripe client.
	stripeClient := stripeclient.NewClient(cfg.StripeAPIBaseURL, cfg.StripeSecretKey)

	// Redis backs the anonymous submission throttle; optional.
	var redisClient *redis.Client
	if cfg.DonationRateLimitPerMin > 0 {
		if strings.TrimSpace(cfg.RedisURL) == "" {
			log.Println("level=warn component=bootstrap msg=\"redis url missing; donation rate limiting disabled\" env=REDIS_URL")
		} else {
			redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
			if parseErr != nil {
				log.Printf("level=warn component=bootstrap msg=\"redis url parse failed; donation rate limiting disabled\" err=%v", parseErr)
			} else {
				redisClient = redis.NewClient(redisOptions)
				pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelPing()
				if pingErr := redisClient.Ping(pingCtx).Err(); pingErr != nil {
					log.Printf("level=warn component=bootstrap msg=\"redis ping failed; donation rate limiting disabled\" err=%v", pingErr)
					redisClient.Close()
					redisClient = nil
				} else {
					defer redisClient.Close()
					log.Println("level=info component=bootstrap msg=\"redis connected\"")
				}
			}
		}
	}

	// Initialize the data access layer (repository).
	repository := store.NewPostgresRepository(dbpool)

	// The WebSocket feed is both a route and the service's live broadcaster.
	feed := api.NewDonationFeed()

	// Initialize the core application services with their dependencies.
	serviceCfg := app.Config{
		TicketPriceCents:       cfg.TicketPriceCents,
		MaxDonationAmountCents: cfg.MaxDonationAmountCents,
		FrontendURL:            cfg.FrontendURL,
		FreeMatchLimit:         cfg.FreeMatchLimit,
		FreeRandomizeLimit:     cfg.FreeRandomizeLimit,
	}

	var producer rabbitmq.Publisher
	if rabbitProducer != nil {
		producer = rabbitProducer
	}

	donationService := app.NewService(repository, stripeClient, producer, feed, serviceCfg)
	tokenIssuer := app.NewTokenIssuer(cfg.TokenSigningKey)
	accountService := app.NewAccounts(repository, tokenIssuer)
	usageService := app.NewUsage(repository, serviceCfg)

	var limiter *app.RedisDonationRateLimiter
	if redisClient != nil {
		limiter = app.NewRedisDonationRateLimiter(redisClient, cfg.RedisRateLimitPrefix)
	}

	// Initialize the API handlers and routes.
	donationHandlers := api.NewDonationHandlers(donationService, limiter, cfg.StripeWebhookSecret, cfg.DonationRateLimitPerMin)
	accountHandlers := api.NewAccountHandlers(accountService)
	usageHandlers := api.NewUsageHandlers(usageService)

	router := api.Routes(donationHandlers, accountHandlers, usageHandlers, feed, tokenIssuer)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
