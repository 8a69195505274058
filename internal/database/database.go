package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"storefront_back_end/internal/config"
	"storefront_back_end/internal/logging"
)

var (
	Postgres *gorm.DB
	Redis    *redis.Client
	Elastic  *elasticsearch.Client
	MinIO    *minio.Client
	Scylla   *ScyllaManager
)

// ConnectDatabases opens Postgres and Redis, which are required, then the optional
// search, object storage and audit backends. Optional ones are left nil when unset.
func ConnectDatabases(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := connectPostgres(cfg); err != nil {
		return err
	}
	if err := connectRedis(ctx, cfg); err != nil {
		return err
	}
	connectElastic(cfg)
	connectMinIO(ctx, cfg)
	if err := InitScyllaDB(cfg); err != nil {
		logging.L().Warn("⚠️ ScyllaDB unavailable, audit trail disabled", zap.Error(err))
	}

	logging.L().Info("✅ All databases connected")
	return nil
}

// ConnectPostgres opens only the relational store, for CLI commands that need nothing else.
func ConnectPostgres(cfg config.Config) error {
	return connectPostgres(cfg)
}

// ConnectSearch opens only Elasticsearch, for the reindex command.
func ConnectSearch(cfg config.Config) error {
	connectElastic(cfg)
	if Elastic == nil {
		return errors.New("elasticsearch unavailable")
	}
	return nil
}

// Close releases every open connection.
func Close() {
	if Postgres != nil {
		if sqlDB, err := Postgres.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if Redis != nil {
		_ = Redis.Close()
	}
	if Scylla != nil {
		CloseScylla()
	}
}

// =============================================
// POSTGRES
// =============================================
func connectPostgres(cfg config.Config) error {
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	Postgres = db
	logging.L().Info("✅ Connected to Postgres")
	return nil
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg config.Config) error {
	Redis = redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	logging.L().Info("✅ Connected to Redis", zap.String("addr", cfg.RedisHost))
	return nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg config.Config) {
	if cfg.ElasticURL == "" {
		logging.L().Warn("⚠️ ELASTIC_URL not set, search falls back to Postgres")
		return
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		logging.L().Warn("⚠️ Elasticsearch client error", zap.Error(err))
		return
	}

	res, err := client.Info()
	if err != nil {
		logging.L().Warn("⚠️ Elasticsearch unreachable", zap.Error(err))
		return
	}
	defer res.Body.Close()

	Elastic = client
	logging.L().Info("✅ Connected to Elasticsearch")
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg config.Config) {
	if cfg.MinioEndpoint == "" {
		logging.L().Warn("⚠️ MINIO_ENDPOINT not set, image uploads disabled")
		return
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		logging.L().Warn("⚠️ MinIO client error", zap.Error(err))
		return
	}

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		logging.L().Warn("⚠️ MinIO bucket check failed", zap.Error(err))
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{}); err != nil {
			logging.L().Warn("⚠️ MinIO bucket creation failed", zap.Error(err))
			return
		}
		logging.L().Info("🪣 Bucket created", zap.String("bucket", cfg.MinioBucket))
	}

	MinIO = client
	logging.L().Info("✅ Connected to MinIO", zap.String("endpoint", cfg.MinioEndpoint))
}
