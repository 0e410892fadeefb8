package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"object-detection-service/internal/annotate"
	"object-detection-service/internal/config"
	"object-detection-service/internal/detector"
	"object-detection-service/internal/domain"
	"object-detection-service/internal/handler"
	"object-detection-service/internal/middleware"
	"object-detection-service/internal/repository"
	"object-detection-service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Detector backend
	loader, releaseBackend, err := detector.NewLoader(cfg)
	if err != nil {
		log.Fatalf("init detector backend: %v", err)
	}
	defer releaseBackend()

	// A missing default model degrades the service instead of stopping it:
	// requests that bring their own weights still work.
	var defaultModel domain.Detector
	if d, err := detector.LoadDefault(context.Background(), cfg, loader); err != nil {
		log.WithError(err).WithField("path", cfg.Model.DefaultPath).Error("load default model failed")
	} else {
		defaultModel = d
		defer defaultModel.Close()
		log.WithField("backend", cfg.Detector.Backend).Info("default model loaded")
	}

	// Prediction history, bills of materials and inspections
	var (
		predictionRepo domain.PredictionRepository
		bomRepo        domain.BOMRepository
		inspectionRepo domain.InspectionRepository
		pinger         handler.Pinger
	)
	if cfg.Database.Enabled {
		pool, err := newPool(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		defer pool.Close()

		predictionRepo = repository.NewPredictionRepository(pool)
		bomRepo = repository.NewBOMRepository(pool)
		inspectionRepo = repository.NewInspectionRepository(pool)
		pinger = pool
		log.Info("database connection established")
	} else {
		predictionRepo = repository.NewMemoryPredictionRepository(cfg.History.MemoryCapacity)
		bomRepo = repository.NewMemoryBOMRepository()
		inspectionRepo = repository.NewMemoryInspectionRepository()
		log.Info("prediction history and inspections kept in memory")
	}

	models := usecase.NewModelProvider(defaultModel, loader, cfg.Model.TempDir)
	predictUC := usecase.NewPredictionUseCase(models, annotate.New(cfg.Render.JPEGQuality), predictionRepo)
	historyUC := usecase.NewPredictionHistoryUseCase(predictionRepo)
	bomUC := usecase.NewBOMUseCase(bomRepo, inspectionRepo)
	inspectionUC := usecase.NewInspectionUseCase(predictUC, bomRepo, inspectionRepo)

	h := handler.New(predictUC, historyUC, models, handler.Options{
		Backend:       cfg.Detector.Backend,
		MaxUploadSize: cfg.Upload.MaxSize,
		DB:            pinger,
	})

	// Setup router
	router := gin.New()
	router.MaxMultipartMemory = cfg.Upload.MaxSize
	router.Use(middleware.RequestID(), middleware.Logging(), middleware.CORS(cfg.CORS.AllowedOrigins), gin.Recovery())
	h.RegisterRoutes(&router.RouterGroup)
	handler.NewInspectionHandler(bomUC, inspectionUC, cfg.Upload.MaxSize).RegisterRoutes(&router.RouterGroup)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func newPool(dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(dbCfg.MaxOpenConns)
	poolCfg.MinConns = int32(dbCfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = dbCfg.ConnMaxLifetime

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
