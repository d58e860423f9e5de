package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immoeliza/server/config"
	"immoeliza/server/internal/api"
	"immoeliza/server/internal/cache"
	"immoeliza/server/internal/database"
	"immoeliza/server/internal/predict"
	"immoeliza/server/internal/reference"
	"immoeliza/server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(logger, cfg)

	// Reference data and model artifacts are loaded once; any failure is fatal
	table, err := loadReference(cfg.Artifacts.CommunePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load commune reference data")
	}
	logger.Infof("Loaded %d communes from %s", table.Len(), cfg.Artifacts.CommunePath)

	predictor, err := predict.Load(cfg.Artifacts.ModelPath, cfg.Artifacts.ScalerPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load model artifacts")
	}
	logger.WithFields(logrus.Fields{
		"model":    cfg.Artifacts.ModelPath,
		"scaler":   cfg.Artifacts.ScalerPath,
		"k":        predictor.Model().K(),
		"metric":   predictor.Model().Metric(),
		"features": predictor.Features(),
		"version":  predictor.Version(),
	}).Info("Loaded prediction model")

	priceCache, closeCache := newCache(cfg, logger)
	defer closeCache()

	estimator, err := service.NewEstimator(table, predictor, priceCache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize estimator")
	}

	handler := api.NewHandler(estimator, table, cfg.Heatmap.DefaultPrecision, logger)
	if err := handler.PrecomputeHeatmaps(); err != nil {
		logger.WithError(err).Fatal("Failed to build heatmaps")
	}

	if logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.WithError(err).Fatal("Server failed to start")
	case <-quit:
		logger.Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Error during server shutdown")
	}
	logger.Info("Server exited")
}

func configureLogger(logger *logrus.Logger, cfg *config.Config) {
	if cfg.Logging.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
}

func loadReference(path string) (*reference.Table, error) {
	if !reference.IsSQLitePath(path) {
		return reference.Load(reference.CSVFile{Path: path}, path)
	}

	db, err := database.OpenReadOnly(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return reference.Load(db, path)
}

func newCache(cfg *config.Config, logger *logrus.Logger) (cache.Cache, func()) {
	ttl := time.Duration(cfg.Cache.TTL) * time.Second

	if cfg.Cache.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.Cache.RedisAddr, ttl)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		err := redisCache.Ping(ctx)
		if err == nil {
			logger.Infof("Caching predictions in Redis at %s", cfg.Cache.RedisAddr)
			return redisCache, func() { redisCache.Close() }
		}
		logger.WithError(err).Warn("Redis unavailable, caching predictions in memory")
		redisCache.Close()
	}

	return cache.NewMemoryCache(cfg.Cache.MaxEntries, ttl), func() {}
}
