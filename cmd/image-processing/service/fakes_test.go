package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/mattermanifest/image-processing/common/codec"
)

// recordingReporter keeps every reported error
type recordingReporter struct {
	mu     sync.Mutex
	errs   []error
	extras []map[string]any
}

func (r *recordingReporter) Report(_ context.Context, err error, extra map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
	r.extras = append(r.extras, extra)
}

func (r *recordingReporter) Flush(time.Duration) bool { return true }

// fakeCodec returns canned output and records the options it saw
type fakeCodec struct {
	out   []byte
	err   error
	panic bool
	seen  []codec.Options
}

func (c *fakeCodec) Name() string { return "fake" }

func (c *fakeCodec) Process(_ []byte, opts codec.Options) ([]byte, error) {
	c.seen = append(c.seen, opts)
	if c.panic {
		panic("decoder exploded")
	}
	return c.out, c.err
}

var errStoreDown = errors.New("store down")

// failingStore fails selected operations
type failingStore struct {
	blobstore.Store
	getErr     error
	putErr     error
	presignErr error
}

func (s *failingStore) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, key)
}

func (s *failingStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.Store.Put(ctx, key, data, contentType, metadata)
}

func (s *failingStore) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if s.presignErr != nil {
		return "", s.presignErr
	}
	return s.Store.Presign(ctx, key, ttl)
}
