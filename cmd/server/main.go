package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/blockcms/internal/component"
	"github.com/blockcms/internal/config"
	"github.com/blockcms/internal/db"
	"github.com/blockcms/internal/editor"
	"github.com/blockcms/internal/handler"
	"github.com/blockcms/internal/logging"
	"github.com/blockcms/internal/router"
	"github.com/blockcms/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const draftSweepInterval = 10 * time.Minute

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.GinMode)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer logger.Sync() //nolint:errcheck
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Fatal("failed to ensure admin user", zap.Error(err))
	}

	opts := handler.Options{
		Catalog:        component.Default(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		SaveTimeout:    cfg.SaveTimeout,
		DraftTTL:       cfg.DraftTTL,
		Logger:         logger,
	}
	if cfg.MediaBackend == config.MediaBackendImageKit {
		ik, err := storage.NewImageKit(storage.ImageKitConfig{
			PublicKey:   cfg.ImageKitPublicKey,
			PrivateKey:  cfg.ImageKitPrivateKey,
			URLEndpoint: cfg.ImageKitURLEndpoint,
			Folder:      cfg.ImageKitFolder,
		})
		if err != nil {
			logger.Fatal("failed to configure imagekit", zap.Error(err))
		}
		opts.Store = ik
		opts.ImageKit = ik
	} else {
		opts.Store = storage.NewLocalStore(cfg.UploadDir, cfg.UploadURLPath)
	}

	api, err := handler.NewAPI(db.DB, opts)
	if err != nil {
		logger.Fatal("failed to build handlers", zap.Error(err))
	}

	// 设置并运行 Gin 服务器
	r, err := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		UploadDir:     cfg.UploadDir,
		UploadURLPath: cfg.UploadURLPath,
		SecureCookie:  strings.HasPrefix(cfg.SiteBaseURL, "https://"),
	})
	if err != nil {
		logger.Fatal("failed to set up router", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sweepDrafts(ctx, api.Drafts(), logger)

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: r}
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.ListenAddr), zap.String("media_backend", cfg.MediaBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to run server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SaveTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// sweepDrafts 定期清理过期的编辑草稿。
func sweepDrafts(ctx context.Context, drafts *editor.DraftStore, logger *zap.Logger) {
	ticker := time.NewTicker(draftSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := drafts.Sweep(); n > 0 {
				logger.Info("expired drafts removed", zap.Int("count", n))
			}
		}
	}
}
