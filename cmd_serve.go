package main

import (
	"fmt"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopguide/internal/cache"
	"shopguide/internal/config"
	"shopguide/internal/database"
	"shopguide/internal/handlers"
	"shopguide/internal/logging"
	"shopguide/internal/media"
	"shopguide/internal/middleware"
	"shopguide/internal/ranking"
	"shopguide/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and pages",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logging.Install(logger)()
	defer logger.Sync()

	st, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	topPicksCache, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.TopPicksCacheTTL)
	if err != nil {
		logger.Warn("redis unavailable, top picks cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		topPicksCache = nil
	}
	defer topPicksCache.Close()

	images, err := openImages(cfg)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(middleware.RequestLogger(logger), gin.Recovery())
	r.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "**", "*"))
	r.Static("/public", cfg.PublicDir)
	if local, ok := images.(*media.Local); ok {
		r.Static("/uploads", local.Root())
	}

	deps := handlers.Deps{
		Store:     st,
		Ranking:   ranking.NewService(st, logger),
		Images:    images,
		Cache:     topPicksCache,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.AccessTokenTTL,
	}
	handlers.RegisterAPI(r, deps)
	handlers.RegisterPages(r, deps)

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("images", cfg.ImageStorage),
		zap.Bool("cache", topPicksCache != nil),
	)
	return r.Run(":" + cfg.Port)
}

// loadRuntime reads .env and the environment, validates it and builds the logger.
func loadRuntime() (config.Config, *zap.Logger, error) {
	config.Load()
	cfg := config.AppEnv
	if err := cfg.Validate(); err != nil {
		return config.Config{}, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.GinMode != gin.ReleaseMode)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}

func openStore(cfg config.Config) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		zap.L().Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	db := client.Database(cfg.DBName)
	zap.L().Info("mongo database selected", zap.String("db", db.Name()))

	if err := database.EnsureProductIndexes(db); err != nil {
		zap.L().Warn("product index warning", zap.Error(err))
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		zap.L().Warn("user index warning", zap.Error(err))
	}

	return store.NewMongo(db, cfg.UseTransactions), func() { database.Disconnect(client) }, nil
}

func openImages(cfg config.Config) (media.Storage, error) {
	switch cfg.ImageStorage {
	case config.ImageS3:
		return media.NewS3(media.S3Config{
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
		})
	case config.ImageCloudinary:
		return media.NewCloudinary(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	default:
		return media.NewLocal(cfg.UploadDir), nil
	}
}
