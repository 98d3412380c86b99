package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner-api/internal/api"
	"meal-planner-api/internal/infrastructure/cache"
	"meal-planner-api/internal/infrastructure/config"
	"meal-planner-api/internal/infrastructure/mongodb"
	"meal-planner-api/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
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
		zap.String("env", cfg.App.Env),
		zap.String("mongo_database", cfg.Mongo.Database),
		zap.String("vision_api_key", config.MaskSecret(cfg.Vision.APIKey)),
		zap.String("payment_api_key", config.MaskSecret(cfg.Payment.APIKey)),
	)

	// The document store is mandatory.
	db, err := mongodb.Connect(&cfg.Mongo, common.Logger)
	if err != nil {
		common.LogFatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := db.Disconnect(); err != nil {
			common.LogError("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}()

	// The cache is not: a failed connection degrades to direct reads.
	cacheStore, err := cache.New(&cfg.Cache, common.Logger)
	if err != nil {
		common.LogWarn("Cache unavailable, continuing without it", zap.Error(err))
		cacheStore = nil
	}
	defer cacheStore.Close()

	router, err := api.SetupRouter(cfg, db, cacheStore)
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
		common.LogInfo("starting server",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
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
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}
