package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"serviceconnect/internal/auth"
	"serviceconnect/internal/config"
	"serviceconnect/internal/db"
	"serviceconnect/internal/email"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/server"
	"serviceconnect/internal/upload"
	"serviceconnect/migrations"
)

// @title ServiceConnect API
// @version 1.0
// @description Marketplace API for booking local service providers and settling payments from wallets.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-auth-token
func main() {
	logger.Init()
	logger.Info("Starting ServiceConnect application")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	logger.Info("Database connected")

	if err := db.RunMigrations(database, migrations.Files); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.JWTRefreshSecret)
	if err != nil {
		logger.Fatalf("Failed to configure tokens: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	emailService := email.New(rdb, email.SMTPSender{
		Host: cfg.SMTPHost,
		Port: cfg.SMTPPort,
		User: cfg.SMTPUser,
		Pass: cfg.SMTPPass,
	}, email.Options{From: cfg.EmailFrom, FromName: cfg.EmailFromName})
	defer emailService.Close()
	logger.Info("Email service initialized", "redis", cfg.RedisAddr)

	uploads, err := upload.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL, cfg.UploadMaxBytes)
	if err != nil {
		logger.Fatalf("Failed to prepare upload directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go emailService.Run(ctx)

	srv := server.New(server.Deps{
		DB:      database,
		Config:  cfg,
		Issuer:  issuer,
		Email:   emailService,
		Uploads: uploads,
	})

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}

	logger.Info("Server stopped")
}
