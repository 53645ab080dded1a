package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/orghub-api/internal/application/dispatch"
	"github.com/orghub-api/internal/config"
	"github.com/orghub-api/internal/infrastructure/dynamo"
	"github.com/orghub-api/internal/infrastructure/fcm"
	jwtinfra "github.com/orghub-api/internal/infrastructure/jwt"
	s3infra "github.com/orghub-api/internal/infrastructure/s3"
	transporthttp "github.com/orghub-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	logger := slog.Default()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)
	deviceRepo := dynamo.NewDeviceRepo(dynamoClient, cfg.DynamoTables.Devices)
	notifRepo := dynamo.NewNotificationRepo(dynamoClient, cfg.DynamoTables.Notifications)

	// Auth is disabled when no public key is present (local development).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	dispatchDeps := dispatch.ServiceDeps{
		UserRepo:         userRepo,
		DeviceRepo:       deviceRepo,
		NotificationRepo: notifRepo,
		Workers:          cfg.DispatchWorkers,
		Timeout:          cfg.DispatchTimeout,
		Logger:           logger,
	}
	// Without a service-account key the dispatcher still records in-app
	// notifications; only push delivery is disabled.
	if tokens, err := fcm.NewTokenSource(cfg.FCM, nil); err == nil {
		dispatchDeps.Tokens = tokens
		dispatchDeps.Push = fcm.NewClient(cfg.FCM.ProjectID, nil)
	} else {
		log.Printf("WARN: push credentials not available: %v", err)
	}
	dispatcher := dispatch.NewService(dispatchDeps)

	// S3 store for receipts.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	deps := &transporthttp.Deps{
		UserRepo:         userRepo,
		DeviceRepo:       deviceRepo,
		NotificationRepo: notifRepo,
		EventRepo:        dynamo.NewEventRepo(dynamoClient, cfg.DynamoTables.Events),
		BudgetRepo:       dynamo.NewBudgetRepo(dynamoClient, cfg.DynamoTables.Budgets),
		ApprovalRepo:     dynamo.NewApprovalRepo(dynamoClient, cfg.DynamoTables.Approvals),
		ObjectStore:      s3Store,
		Dispatcher:       dispatcher,
		JWTProvider:      jwtProvider,
		Logger:           logger,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
