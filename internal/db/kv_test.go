package stamps

import (
	"context"
	"os"
	"testing"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Общие проверки для всех бэкендов
func checkKV(t *testing.T, kv interf.KVStore) {
	ctx := context.Background()
	prefix := "test_" + uuid.NewString() + "_"

	_, err := kv.Get(ctx, prefix+"missing")
	require.ErrorIs(t, err, model.ErrKeyNotFound)

	require.NoError(t, kv.Set(ctx, prefix+"a", "1"))
	require.NoError(t, kv.Set(ctx, prefix+"a", "2"))
	v, err := kv.Get(ctx, prefix+"a")
	require.NoError(t, err)
	require.Equal(t, "2", v)

	require.NoError(t, kv.SetMany(ctx, map[string]string{
		prefix + "b": `{"x":1}`,
		prefix + "c": "[]",
	}))
	v, err = kv.Get(ctx, prefix+"b")
	require.NoError(t, err)
	require.Equal(t, `{"x":1}`, v)

	keys, err := kv.Keys(ctx, prefix)
	require.NoError(t, err)
	require.Equal(t, []string{prefix + "a", prefix + "b", prefix + "c"}, keys)
}

func TestMemoryKV(t *testing.T) {
	checkKV(t, NewMemoryKV())
}

func TestRedisKV(t *testing.T) {
	addr := os.Getenv("STAMPS_TEST_REDIS")
	if addr == "" {
		t.Skip("STAMPS_TEST_REDIS is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	kv, err := NewRedisKV(ctx, addr, "", "")
	require.NoError(t, err)
	defer kv.Close(context.Background())
	checkKV(t, kv)
}

func TestMongoKV(t *testing.T) {
	uri := os.Getenv("STAMPS_TEST_MONGO")
	if uri == "" {
		t.Skip("STAMPS_TEST_MONGO is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	kv, err := NewMongoKV(ctx, uri, "stampsTest", false)
	require.NoError(t, err)
	defer kv.Close(context.Background())
	checkKV(t, kv)
}

func TestPostgresKV(t *testing.T) {
	dsn := os.Getenv("STAMPS_TEST_POSTGRES")
	if dsn == "" {
		t.Skip("STAMPS_TEST_POSTGRES is not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	kv, err := NewPostgresKV(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	defer kv.Close(context.Background())
	checkKV(t, kv)
}
