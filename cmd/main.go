package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/usuarios-storage-api/config"
	"github.com/oksasatya/usuarios-storage-api/internal/container"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
	esinfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/elasticsearch"
	gcsinfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/gcs"
	meminfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/postgres"
	s3infra "github.com/oksasatya/usuarios-storage-api/internal/infrastructure/s3"
	"github.com/oksasatya/usuarios-storage-api/internal/router"
	"github.com/oksasatya/usuarios-storage-api/pkg/helpers"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	container.SetConfig(cfg)
	container.SetLogger(logger)

	// Postgres. An unreachable database is not fatal: data routes answer 503.
	if cfg.DBBackend == "postgres" {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			logger.WithError(err).Error("postgres not available; usuario routes will answer 503")
		} else {
			defer pool.Close()
			container.SetPGPool(pool)
			if cfg.MigrationsEnabled {
				if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
					log.Fatalf("migration failed: %v", err)
				}
			}
		}
	} else {
		logger.Warn("using in-memory record store; data is lost on restart")
	}

	// Blob store
	store, closeStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("blob store not available; photo uploads will fail")
	} else {
		defer closeStore()
		container.SetBlobStore(store)
	}

	// Redis (rate limiting)
	if cfg.RedisAddr != "" {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		if err := helpers.PingRedis(ctx, rdb); err != nil {
			logger.WithError(err).Warn("redis ping failed; rate limiter fails open")
		}
		container.SetRedis(rdb)
	}

	// Elasticsearch (search)
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch client init failed; search disabled")
		} else {
			idx := esinfra.NewUsuarioIndex(es, cfg.ESUsuariosIndex)
			ensureCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			if err := idx.EnsureIndex(ensureCtx); err != nil {
				logger.WithError(err).Warn("failed to ensure search index")
			}
			cancel()
			container.SetES(es)
		}
	}

	// RabbitMQ (notification jobs)
	if cfg.MailSendEnabled && cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, cfg.AppName)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq not available; notifications disabled")
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	r := router.NewEngine()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithFields(logrus.Fields{"port": cfg.Port, "db_backend": cfg.DBBackend, "blob_backend": cfg.BlobBackend}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, func(), error) {
	noop := func() {}
	switch cfg.BlobBackend {
	case "gcs":
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, noop, fmt.Errorf("gcs client: %w", err)
		}
		return gcsinfra.NewBlobStore(client, cfg.BucketName), func() { _ = client.Close() }, nil
	case "s3":
		s, err := s3infra.NewBlobStore(ctx, s3infra.Config{
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.BucketName,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("s3 client: %w", err)
		}
		return s, noop, nil
	case "memory":
		return meminfra.NewBlobStore(cfg.BucketName), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.WithField("dir", migrationsDir).Info("running migrations")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
