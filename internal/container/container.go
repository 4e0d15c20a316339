package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/usuarios-storage-api/config"
	"github.com/oksasatya/usuarios-storage-api/internal/domain/blob"
	"github.com/oksasatya/usuarios-storage-api/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Every handle is set once during startup; a nil handle means the backend is not
// configured or was unreachable.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	blobStore   blob.Store
	esClient    *elasticsearch.Client
	rabbitPub   *helpers.RabbitPublisher
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config {
	if cfg == nil {
		cfg = config.Load()
	}
	return cfg
}

func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger {
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetBlobStore(s blob.Store)               { blobStore = s }
func GetBlobStore() blob.Store                { return blobStore }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

// Reset clears every handle
func Reset() {
	cfg, logger, pgPool, redisClient, blobStore, esClient, rabbitPub = nil, nil, nil, nil, nil, nil, nil
}
