package fs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/data", "cache")

	key := "images/rio/1.jpeg/format=webp,width=100"
	require.NoError(t, s.Put(ctx, key, []byte("webp-bytes"), "image/webp", map[string]string{"cache-control": "max-age=60"}))

	obj, err := s.Get(ctx, key)
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "webp-bytes", string(body))
	assert.Equal(t, "image/webp", obj.ContentType)
	assert.Equal(t, int64(10), obj.Size)
	assert.Equal(t, "max-age=60", obj.Metadata["cache-control"])
}

func TestStore_GetSniffsWithoutSidecar(t *testing.T) {
	ctx := context.Background()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/data/origin/robots.txt", []byte("User-agent: *"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/data/origin/blob", []byte("\x89PNG\r\n\x1a\n0000"), 0o644))

	s := New(mem, "/data", "origin")

	obj, err := s.Get(ctx, "robots.txt")
	require.NoError(t, err)
	assert.Contains(t, obj.ContentType, "text/plain")
	obj.Body.Close()

	obj, err = s.Get(ctx, "blob")
	require.NoError(t, err)
	assert.Equal(t, "image/png", obj.ContentType)
	body, _ := io.ReadAll(obj.Body)
	assert.Len(t, body, 12, "sniffing must rewind the file")
	obj.Body.Close()
}

func TestStore_GetMissing(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/data", "origin")

	_, err := s.Get(context.Background(), "images/none.png")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_KeysStayInsideBucket(t *testing.T) {
	ctx := context.Background()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/data/secret.txt", []byte("nope"), 0o644))
	s := New(mem, "/data", "origin")

	_, err := s.Get(ctx, "../secret.txt")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_GetDirectory(t *testing.T) {
	ctx := context.Background()
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/data/origin/images", 0o755))
	s := New(mem, "/data", "origin")

	_, err := s.Get(ctx, "images")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_PresignUnsupported(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/data", "origin")
	_, err := s.Presign(context.Background(), "models/demo.stl", time.Hour)
	assert.ErrorIs(t, err, blobstore.ErrPresignUnsupported)
}
