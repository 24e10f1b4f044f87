package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"learnquick/internal/app"
	"learnquick/internal/config"
	"learnquick/internal/httpapi"
	"learnquick/internal/logging"
	"learnquick/internal/watch"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/learnquick/config.yaml if not provided)")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		log.Fatalf("failed to init logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewStudyService(cfg, logger)
	if err != nil {
		logger.Error("failed to assemble pipeline", "err", err)
		os.Exit(1)
	}

	if cfg.Server.WatchDir != "" {
		w := watch.New(cfg.Server.WatchDir, svc.IngestFiles, 0, logger.With("component", "watch"))
		if err := w.Sync(ctx); err != nil {
			logger.Warn("initial sync failed", "err", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("watcher stopped", "err", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	ctrl := httpapi.NewController(svc, cfg.Server.UploadDir, logger.With("component", "http"))
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           httpapi.NewRouter(ctrl, cfg.Server.MaxUploadMB, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr, "upload_dir", cfg.Server.UploadDir, "watch_dir", cfg.Server.WatchDir)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
