package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/lost-and-found-api/internal/auth"
	"github.com/yukikurage/lost-and-found-api/internal/config"
	"github.com/yukikurage/lost-and-found-api/internal/database"
	"github.com/yukikurage/lost-and-found-api/internal/logger"
	"github.com/yukikurage/lost-and-found-api/internal/repository"
	"github.com/yukikurage/lost-and-found-api/internal/router"
	"github.com/yukikurage/lost-and-found-api/internal/services"
	"github.com/yukikurage/lost-and-found-api/internal/uploads"
	"github.com/yukikurage/lost-and-found-api/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	gin.SetMode(cfg.GinMode)

	if cfg.TokenSigningKey == "" {
		key, err := utils.RandomHex(32)
		if err != nil {
			return err
		}
		cfg.TokenSigningKey = key
		log.Warn("TOKEN_SIGNING_KEY not set, generated an ephemeral key; tokens will not survive a restart")
	}

	// Connect to database and run migrations
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	files, err := uploads.NewManager(uploads.Config{
		Root:              cfg.StorageRoot,
		AllowedExtensions: cfg.AllowedUploadExtensions,
		URLPrefix:         cfg.UploadURLPrefix,
		PublicBaseURL:     cfg.PublicBaseURL,
		MaxBytes:          cfg.MaxUploadBytes,
		MaxImageDimension: cfg.MaxImageDimension,
	})
	if err != nil {
		return err
	}

	// Category suggestions are optional
	var suggester services.CategorySuggester
	if cfg.OpenAIAPIKey != "" {
		suggester = services.NewAIService(cfg.OpenAIAPIKey)
		log.Info("category suggestions enabled")
	}

	tokens := auth.NewIssuer(cfg.TokenSigningKey, cfg.TokenTTL)
	authService := services.NewAuthService(repository.NewUserRepository(db), tokens)
	itemService := services.NewItemService(repository.NewItemRepository(db), files, suggester)

	r, err := router.New(router.Deps{
		Config:      cfg,
		Logger:      log,
		Tokens:      tokens,
		AuthService: authService,
		ItemService: itemService,
		Uploads:     files,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", cfg.Addr, "db_driver", cfg.DBDriver, "storage_root", files.Root())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
