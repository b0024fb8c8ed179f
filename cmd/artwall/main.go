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

	"github.com/artwall/artwall/internal/config"
	"github.com/artwall/artwall/internal/dispatch"
	"github.com/artwall/artwall/internal/domain"
	"github.com/artwall/artwall/internal/handler"
	"github.com/artwall/artwall/internal/media"
	"github.com/artwall/artwall/internal/registry"
	"github.com/artwall/artwall/internal/repository"
	"github.com/artwall/artwall/internal/scheduler"
	"github.com/artwall/artwall/internal/service"
	"github.com/artwall/artwall/pkg/database"
	"github.com/artwall/artwall/pkg/jwt"
	"github.com/artwall/artwall/pkg/log"
	"github.com/artwall/artwall/pkg/middleware"
	"github.com/artwall/artwall/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(log.Config{
		Level:       cfg.Log.Level,
		ServiceName: "artwall",
	})
	l := log.L()

	db, err := database.New(&cfg.Database)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to connect to database")
	}
	err = database.AutoMigrate(db,
		&domain.UserModel{},
		&domain.MessageModel{},
		&domain.StoryModel{},
		&domain.PostModel{},
		&domain.ConnectionModel{},
	)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to migrate database")
	}

	st, err := newStorage(cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize storage")
	}

	jwtManager, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL, cfg.Auth.Issuer)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to initialize jwt manager")
	}

	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	messageRepo := repository.NewGormMessageRepository(db)
	storyRepo := repository.NewGormStoryRepository(db)
	postRepo := repository.NewGormPostRepository(db)
	connectionRepo := repository.NewGormConnectionRepository(db)

	// Push plumbing
	reg := registry.NewRegistry()
	dispatcher := dispatch.NewDispatcher(reg)
	uploader := media.NewUploader(st, cfg.Media)

	// Services
	authService := service.NewAuthService(userRepo, jwtManager)
	messageService := service.NewMessageService(messageRepo, userRepo, uploader)
	userService := service.NewUserService(userRepo, postRepo, connectionRepo, uploader)
	storyService := service.NewStoryService(storyRepo, userRepo, uploader, cfg.Story)
	postService := service.NewPostService(postRepo, userRepo, uploader)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// Router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(l))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Storage.Backend == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	handler.NewAuthHandler(authService, userService, authMiddleware).RegisterRoutes(router)
	handler.NewMessageHandler(messageService, reg, dispatcher, authMiddleware).RegisterRoutes(router)
	handler.NewUserHandler(userService, authMiddleware).RegisterRoutes(router)
	handler.NewStoryHandler(storyService, authMiddleware).RegisterRoutes(router)
	handler.NewPostHandler(postService, authMiddleware).RegisterRoutes(router)

	// Background story expiry
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	sweeper := scheduler.NewStorySweeper(storyService, cfg.Story.SweepInterval)
	go sweeper.Run(sweepCtx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		l.Info().Str("addr", addr).Str("db_driver", cfg.Database.Driver).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info().Msg("shutting down")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("forced shutdown")
	}

	l.Info().Msg("server exited")
}

// newStorage selects the media backend from config.
func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "s3":
		return storage.NewS3Storage(context.Background(), storage.S3Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			UsePathStyle:    cfg.Storage.S3.UsePathStyle,
			PublicURL:       cfg.Storage.S3.PublicURL,
		})
	case "local":
		return storage.NewLocalStorage(storage.LocalConfig{BasePath: cfg.Storage.LocalPath})
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
