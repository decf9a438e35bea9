package stamps

import (
	"context"
	"fmt"
	"time"

	"github.com/glkeru/loyalty/stamps/internal/config"
	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	"go.uber.org/zap"
)

// KV бэкенд по конфигурации
func NewKVStore(ctx context.Context, cfg config.Store, logger *zap.Logger) (interf.KVStore, error) {
	dctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		kv  interf.KVStore
		err error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		kv = NewMemoryKV()
	case config.BackendRedis:
		kv, err = NewRedisKV(dctx, cfg.RedisAddr, cfg.RedisUser, cfg.RedisPassword)
	case config.BackendMongo:
		kv, err = NewMongoKV(dctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoTx)
	case config.BackendPostgres:
		kv, err = NewPostgresKV(dctx, cfg.PostgresDSN(), logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("%s storage: %w", cfg.Backend, err)
	}
	return kv, nil
}
