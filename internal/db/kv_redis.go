package stamps

import (
	"context"
	"sort"
	"time"

	model "github.com/glkeru/loyalty/stamps/internal/models"
	redis "github.com/redis/go-redis/v9"
)

type RedisKV struct {
	client *redis.Client
}

func NewRedisKV(ctx context.Context, addr, user, pwd string) (*RedisKV, error) {
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	err := db.Ping(ctx).Err()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &RedisKV{db}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", model.ErrKeyNotFound
	} else if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// MULTI/EXEC: коллекции перехода пишутся одним блоком
func (r *RedisKV) SetMany(ctx context.Context, values map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, k, v, 0)
		}
		return nil
	})
	return err
}

func (r *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		k, next, err := r.client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *RedisKV) Close(ctx context.Context) error {
	return r.client.Close()
}
