package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/backend"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/cache"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/cart"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/consumer"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/gateway"
	h "github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/http"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/orchestrator"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/publisher"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/repository"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/service"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/submitter"
	"github.com/Sohaib-Ahmed869/pqf-checkout-service/internal/validation"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    []string
	BackendURL      string
	BackendToken    string
	GatewayURL      string
	GatewaySecret   string
	RequestTimeout  time.Duration
	BackendTimeout  time.Duration
	ShutdownTimeout time.Duration
	DB              *repository.Credentials
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "pqf"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:3000/api"),
		BackendToken:    getEnv("BACKEND_SERVICE_TOKEN", ""),
		GatewayURL:      getEnv("GATEWAY_URL", "https://api.stripe.com"),
		GatewaySecret:   getEnv("GATEWAY_SECRET_KEY", ""),
		RequestTimeout:  60 * time.Second,
		BackendTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB: &repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "checkout"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("checkout service starting...")

	cfg := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cart storage
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	cartRepo := cart.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		log.Fatalf("Failed to create cart indexes: %v", err)
	}
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	log.Printf("Redis ping succeeded")

	cartCache := cache.NewRedisCache(redisClient)
	cartService := cart.NewService(cartRepo, cartCache)

	// Checkout session storage
	repo, err := repository.NewRepository(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Outbound clients
	// service credential for background work; user requests carry their own
	// token in the request context
	tokens := backend.NewMemoryTokenStore(cfg.BackendToken)
	backendClient := backend.NewClient(cfg.BackendURL, tokens, cfg.BackendTimeout)
	gatewayClient := gateway.NewHTTPClient(cfg.GatewayURL, cfg.GatewaySecret, cfg.BackendTimeout)

	paymentOrchestrator := orchestrator.New(backendClient, gatewayClient)
	orderSubmitter := submitter.New(backendClient)

	checkoutService := service.NewCheckoutService(
		repo,
		cartService,
		validation.New(),
		paymentOrchestrator,
		orderSubmitter,
	)

	// Background workers
	poller := publisher.NewOutboxPoller(repo, orderSubmitter, cfg.KafkaBrokers...)
	defer poller.Close()
	go poller.Run(ctx)

	janitor := consumer.NewConsumer(cartService, cfg.KafkaBrokers...)
	defer janitor.Close()
	go janitor.Run(ctx)

	// HTTP server
	cartHandler := h.NewCartHandler(cartService, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, cfg.RequestTimeout)
	accountHandler := h.NewAccountHandler(backendClient, cfg.BackendTimeout)

	router := h.NewRouter(cartHandler, checkoutHandler, accountHandler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "checkout-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Checkout service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
