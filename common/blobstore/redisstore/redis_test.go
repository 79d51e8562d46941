package redisstore

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/mattermanifest/image-processing/common/logger"
	rediscommon "github.com/mattermanifest/image-processing/common/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupRedis connects to a local Redis on DB 15, skipping when none is running.
// The raw client is returned for assertions the wrapper does not expose.
func setupRedis(t *testing.T) (*rediscommon.Client, *redis.Client) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		t.Skipf("redis not available on localhost:6379: %v", err)
	}
	require.NoError(t, raw.FlushDB(ctx).Err())
	t.Cleanup(func() { _ = raw.Close() })

	return rediscommon.NewClient(raw, logger.Discard()), raw
}

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	client, raw := setupRedis(t)
	s := New(client, "transformed", time.Minute)

	key := "images/rio/1.jpeg/format=webp,width=100"
	require.NoError(t, s.Put(ctx, key, []byte{0x52, 0x49, 0x46, 0x46, 0x00}, "image/webp",
		map[string]string{"cache-control": "max-age=60"}))

	obj, err := s.Get(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, []byte{0x52, 0x49, 0x46, 0x46, 0x00}, body)
	assert.Equal(t, "image/webp", obj.ContentType)
	assert.Equal(t, "max-age=60", obj.Metadata["cache-control"])

	ttl, err := raw.TTL(ctx, "transformed:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestStore_GetMissing(t *testing.T) {
	client, _ := setupRedis(t)
	s := New(client, "transformed", 0)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_PresignUnsupported(t *testing.T) {
	s := New(nil, "transformed", 0)
	_, err := s.Presign(context.Background(), "k", time.Hour)
	assert.ErrorIs(t, err, blobstore.ErrPresignUnsupported)
}
