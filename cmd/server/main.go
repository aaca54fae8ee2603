package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edupay/config"
	"edupay/internal/api"
	"edupay/internal/broker"
	"edupay/internal/payment"
	"edupay/internal/redisclient"
	"edupay/internal/service"
	"edupay/internal/store"
	"edupay/internal/util"
	"edupay/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting edupay service")

	tp, err := util.InitTracer("edupay", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	if err := store.Migrate(cfg.Database.URL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	paymentClient := payment.New(cfg.Stripe.SecretKey)
	if paymentClient.Configured() {
		log.Println("Payment processor client initialized")
	} else {
		log.Println("Payment processor not configured, running in fallback mode")
	}

	checkoutService := service.NewCheckoutService(db, db, db, paymentClient, eventPublisher, cfg.App.BaseURL)
	reconciler := service.NewReconciler(db, paymentClient, eventPublisher)
	accessService := service.NewAccessService(db, db, redisClient)
	catalogService := service.NewCatalogService(db)
	userService := service.NewUserService(db, eventPublisher)
	projector := service.NewEntitlementProjector(db, redisClient)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicPurchase, cfg.Kafka.ConsumerGroup)
	entitlementWorker := worker.NewEntitlementWorker(consumer, projector)
	go func() {
		if err := entitlementWorker.Start(workerCtx); err != nil {
			log.Printf("Entitlement worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(api.HandlerConfig{
		StripeWebhookSecret:   cfg.Stripe.WebhookSecret,
		IdentityWebhookSecret: cfg.Identity.WebhookSecret,
		JWTPublicKey:          cfg.Identity.JWTPublicKey,
	}, checkoutService, reconciler, accessService, catalogService, userService, paymentClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	entitlementWorker.Stop()

	log.Println("Server exited")
}
