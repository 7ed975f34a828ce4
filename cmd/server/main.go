package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devilbiswajit/VideoStream/internal/application/services"
	"github.com/devilbiswajit/VideoStream/internal/config"
	"github.com/devilbiswajit/VideoStream/internal/db"
	delivery "github.com/devilbiswajit/VideoStream/internal/delivery/http"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/cache"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/mail"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/media"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/ratelimit"
	"github.com/devilbiswajit/VideoStream/internal/infrastructure/token"
	"github.com/devilbiswajit/VideoStream/internal/logger"
	mongorepo "github.com/devilbiswajit/VideoStream/internal/repository/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.NewSlog(logger.SlogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoDB.Close(shutdownCtx); err != nil {
			log.Warn("failed to disconnect from MongoDB", "error", err)
		}
	}()
	log.Info("connected to MongoDB", "database", cfg.MongoDB)

	redisClient := cache.NewRedisClient(ctx, cfg.RedisURL)
	if redisClient == nil {
		log.Warn("redis unavailable, session cache disabled")
	}
	sessionCache := cache.NewSessionCache(redisClient)
	defer sessionCache.Close()

	uploader, err := media.NewCloudinaryUploader(
		cfg.CloudinaryCloudName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
		cfg.UploadTimeout,
		cfg.UploadRetries,
		log,
	)
	if err != nil {
		log.Error("failed to initialize media uploader", "error", err)
		os.Exit(1)
	}

	jwtService := token.NewJWTService(
		cfg.AccessTokenSecret,
		cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry,
		cfg.RefreshTokenExpiry,
	)

	userRepo := mongorepo.NewUserRepository(mongoDB.Collection("users"))
	videoRepo := mongorepo.NewVideoRepository(mongoDB.Collection("videos"))
	mailer := mail.NewSendgridMailer(cfg.SendgridAPIKey, cfg.MailFrom)

	userService := services.NewUserService(userRepo, videoRepo, jwtService, uploader, sessionCache, mailer, log)

	handler := delivery.NewUserHandler(
		userService,
		jwtService,
		ratelimit.NewKeyedLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
		cfg.TempDir,
		log,
	)
	authenticate := delivery.Authenticate(jwtService, userService, sessionCache)

	e := delivery.NewRouter(cfg, handler, authenticate, log)

	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped gracefully")
}
