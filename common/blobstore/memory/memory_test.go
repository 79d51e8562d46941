package memory

import (
	"context"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := New("origin")

	require.NoError(t, s.Put(ctx, "images/rio/1.jpeg", []byte("jpeg-bytes"), "image/jpeg", map[string]string{"a": "b"}))

	obj, err := s.Get(ctx, "images/rio/1.jpeg")
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.Equal(t, "image/jpeg", obj.ContentType)
	assert.Equal(t, int64(10), obj.Size)
	assert.Equal(t, map[string]string{"a": "b"}, obj.Metadata)
	assert.Equal(t, "origin", s.Bucket())
}

func TestStore_GetMissing(t *testing.T) {
	_, err := New("origin").Get(context.Background(), "nope")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestStore_PutCopiesInput(t *testing.T) {
	ctx := context.Background()
	s := New("origin")
	data := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", data, "text/plain", nil))
	data[0] = 'z'

	obj, err := s.Get(ctx, "k")
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "abc", string(body))
}

func TestStore_Writes(t *testing.T) {
	ctx := context.Background()
	s := New("cache")

	assert.Equal(t, 0, s.Writes("k"))
	require.NoError(t, s.Put(ctx, "k", []byte("1"), "image/png", nil))
	require.NoError(t, s.Put(ctx, "k", []byte("2"), "image/png", nil))
	assert.Equal(t, 2, s.Writes("k"))
}

func TestStore_Presign(t *testing.T) {
	ctx := context.Background()
	s := New("origin")
	s.now = func() time.Time { return time.Unix(1000, 0) }

	_, err := s.Presign(ctx, "models/demo.gcode", time.Hour)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, s.Put(ctx, "models/demo.gcode", []byte("G1 X0"), "text/x-gcode", nil))
	link, err := s.Presign(ctx, "models/demo.gcode", time.Hour)
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "memory", u.Scheme)
	assert.Equal(t, "origin", u.Host)
	assert.Equal(t, "/models/demo.gcode", u.Path)
	assert.Equal(t, "4600", u.Query().Get("expires"))
}
