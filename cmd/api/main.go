package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feed-formulator/internal/api"
	"feed-formulator/internal/core/catalog"
	"feed-formulator/internal/core/formulation"
	formulationCache "feed-formulator/internal/core/formulation/cache"
	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("configuration loaded",
		zap.String("catalog_path", cfg.Catalog.Path),
		zap.String("catalog_url", cfg.Catalog.URL),
		zap.String("default_mode", cfg.Solver.DefaultMode),
	)

	// the catalog is loaded once at startup and is read-only afterwards
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cfg.Catalog.FetchTimeout)
	cat, err := catalog.NewSource(&cfg.Catalog).Load(loadCtx)
	cancelLoad()
	if err != nil {
		common.LogFatal("Failed to load ingredient catalog", zap.Error(err))
	}

	cacheSvc, err := formulationCache.NewService(&cfg.Cache)
	if err != nil {
		common.LogFatal("Failed to initialize result cache", zap.Error(err))
	}
	defer cacheSvc.Close()

	formulationSvc := formulation.NewService(cfg, cat, formulation.DefaultRegistry(), cacheSvc)
	defer formulationSvc.Close()

	router, err := api.SetupRouter(cfg, formulationSvc)
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("starting application",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("ingredients", cat.Len()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
