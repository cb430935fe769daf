package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/bus"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/cache"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/handlers"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/hub"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/ingest"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/notify"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/payments"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/storage"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/subscription"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/terminals"
	"github.com/thiagosouza28/ideart-cloud-sub005/internal/workers"
)

func main() {
	if os.Getenv("JWT_SECRET") == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Database connection (with retries)
	var db *sqlx.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sqlx.Connect("postgres", buildDSN())
		if err == nil {
			break
		}
		log.Printf("DB connection attempt %d failed: %v", i+1, err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	// NATS connection
	busClient, err := bus.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer busClient.Close()

	// Redis cache
	redisClient, err := cache.NewRedisClient()
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Storage and services
	store := storage.NewStorage(db)
	subs := subscription.NewService(store, redisClient)
	slackClient := notify.NewSlackClient()

	stripeClient := payments.NewStripeClient()
	caktoClient := payments.NewCaktoClient()
	yampiClient := payments.NewYampiClient()

	// Terminal credential issuer; without the signing key the enroll
	// endpoint answers 500 but the rest of the API works.
	var issuer *terminals.JWTIssuer
	if seed := os.Getenv("NATS_SIGNING_KEY_SEED"); seed != "" {
		issuer, err = terminals.NewJWTIssuer(seed, os.Getenv("NATS_ACCOUNT_PUBLIC_KEY"))
		if err != nil {
			log.Fatalf("Failed to init NATS JWT issuer: %v", err)
		}
	} else {
		log.Println("WARN NATS_SIGNING_KEY_SEED not set; terminal enrollment disabled")
	}

	orderHub := hub.NewHub()

	// Start consumers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	paymentsConsumer := ingest.NewPaymentsConsumer(busClient.JS(), store, subs, slackClient)
	if err := paymentsConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start payments consumer: %v", err)
	}

	ordersConsumer := ingest.NewOrdersConsumer(busClient.JS(), store, orderHub, slackClient)
	if err := ordersConsumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start orders consumer: %v", err)
	}

	kvWatcher := ingest.NewKVWatcher(busClient.KV(), store)
	if err := kvWatcher.Start(ctx); err != nil {
		log.Fatalf("Failed to start KV watcher: %v", err)
	}

	keyEventsActive := workers.StartTrialKeyeventWorker(ctx, redisClient, store)
	if !keyEventsActive {
		log.Println("WARN Redis keyspace notifications are not active; relying on the reconciler only")
	}
	workers.StartExpiryReconciler(ctx, redisClient, store)

	// HTTP handlers
	authHandler := auth.NewHandler(store, subs)
	webhookHandler := payments.NewWebhookHandler(store, busClient.JS(), stripeClient, caktoClient, yampiClient)
	terminalHandler := terminals.NewHandler(store, issuer, terminals.Config{
		NATSURLs: natsURLs(),
	})

	h := handlers.New(store, redisClient, subs, busClient.JS(), orderHub,
		authHandler, webhookHandler, terminalHandler,
		stripeClient, caktoClient, yampiClient)

	// Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:    ":" + getEnv("PORT", "8080"),
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("Shutting down...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		_ = paymentsConsumer.Stop()
		_ = ordersConsumer.Stop()
		_ = kvWatcher.Stop()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}

func natsURLs() []string {
	raw := getEnv("NATS_PUBLIC_URLS", getEnv("NATS_URL", "nats://localhost:4222"))
	parts := strings.Split(raw, ",")
	urls := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			urls = append(urls, p)
		}
	}
	return urls
}

func buildDSN() string {
	return "host=" + getEnv("DB_HOST", "localhost") +
		" user=" + getEnv("DB_USER", "erp_user") +
		" password=" + getEnv("DB_PASSWORD", "erp_pass") +
		" dbname=" + getEnv("DB_NAME", "graficaerp") +
		" sslmode=disable"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
