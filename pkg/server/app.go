// Package server assembles the store, snapshot hub, actions and HTTP router
// shared by the Vercel function and the standalone server.
package server

import (
	"context"
	"fmt"
	"os"

	"ramo-hub-backend/pkg/actions"
	"ramo-hub-backend/pkg/config"
	"ramo-hub-backend/pkg/database"
	"ramo-hub-backend/pkg/hydrator"
	"ramo-hub-backend/pkg/logger"
	"ramo-hub-backend/pkg/metrics"
	"ramo-hub-backend/pkg/snapshot"
	"ramo-hub-backend/pkg/storage"
)

// App 进程内共享的组件
type App struct {
	Config  *config.Config
	Log     logger.Logger
	Store   database.Store
	Hub     *snapshot.Hub
	Actions *actions.Actions
	Metrics *metrics.Recorder
	Blobs   storage.Store
}

// NewApp 按配置连接存储并组装各组件；不会触发首次刷新
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	log := NewLogger(cfg)

	store, err := database.GetDatabase(ctx, database.DatabaseConfig{
		Driver:      cfg.DatabaseDriver,
		PostgresDSN: cfg.PostgresDSN,
		SQLitePath:  cfg.SQLitePath,
		SupabaseURL: cfg.SupabaseURL,
		SupabaseKey: cfg.SupabaseKey,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return nil, err
	}

	// 本地 SQLite 没有外部迁移流程，启动时补齐表结构
	if sqlDB, ok := store.(*database.SQLDatabase); ok && sqlDB.Driver() == database.DriverSQLite {
		if err := database.Migrate(ctx, sqlDB); err != nil {
			return nil, err
		}
	}

	blobs, err := NewBlobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return Assemble(cfg, log, store, blobs), nil
}

// Assemble 用已有的存储组装组件（测试直接使用）
func Assemble(cfg *config.Config, log logger.Logger, store database.Store, blobs storage.Store) *App {
	rec := metrics.New()
	fetcher := hydrator.NewFetcher(store, log, rec)
	hub := snapshot.NewHub(fetcher, snapshot.Options{
		Policy:  cfg.RefreshPolicy,
		Timeout: cfg.RefreshTimeout,
		Logger:  log,
		Metrics: rec,
	})

	return &App{
		Config:  cfg,
		Log:     log,
		Store:   store,
		Hub:     hub,
		Metrics: rec,
		Blobs:   blobs,
		Actions: actions.New(store, hub,
			actions.WithLogger(log),
			actions.WithMetrics(rec),
			actions.WithStorage(blobs),
		),
	}
}

// NewLogger 配置了 Rollbar 令牌时上报警告与错误，否则只写控制台
func NewLogger(cfg *config.Config) logger.Logger {
	console := logger.NewConsoleLogger(os.Stdout, cfg.Debug)
	if cfg.RollbarToken == "" {
		return console
	}
	host, _ := os.Hostname()
	return logger.NewRollbarLogger(console, logger.RollbarConfig{
		Token:       cfg.RollbarToken,
		Environment: cfg.Environment,
		ServerHost:  host,
		CodeVersion: os.Getenv("VERCEL_GIT_COMMIT_SHA"),
	})
}

// NewBlobStore 配置了存储桶时使用 S3 兼容存储，否则上传不可用
func NewBlobStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageBucket == "" {
		return storage.Disabled{}, nil
	}
	s3Store, err := storage.NewS3Store(ctx, storage.S3Config{
		Bucket:          cfg.StorageBucket,
		Region:          cfg.StorageRegion,
		Endpoint:        cfg.StorageEndpoint,
		AccessKeyID:     cfg.StorageAccessKey,
		SecretAccessKey: cfg.StorageSecretKey,
		PathStyle:       cfg.StoragePathStyle,
		PublicBaseURL:   cfg.StoragePublicBaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure object storage: %w", err)
	}
	return s3Store, nil
}
