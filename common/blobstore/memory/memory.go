package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
)

// Store is an in-process blob store for tests and local development
type Store struct {
	bucket string
	data   map[string]*entry
	mu     sync.RWMutex
	now    func() time.Time
}

type entry struct {
	value       []byte
	contentType string
	metadata    map[string]string
	writes      int
}

// New creates an empty in-memory store
func New(bucket string) *Store {
	return &Store{
		bucket: bucket,
		data:   make(map[string]*entry),
		now:    time.Now,
	}
}

// Bucket returns the namespace of the store
func (s *Store) Bucket() string { return s.bucket }

// Get returns a copy of the stored object
func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.data[key]
	if !exists {
		return nil, blobstore.ErrNotFound
	}

	return &blobstore.Object{
		Body:        io.NopCloser(bytes.NewReader(e.value)),
		ContentType: e.contentType,
		Size:        int64(len(e.value)),
		Metadata:    copyMap(e.metadata),
	}, nil
}

// Put stores a copy of data; the last write wins
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writes := 0
	if prev, ok := s.data[key]; ok {
		writes = prev.writes
	}
	s.data[key] = &entry{
		value:       bytes.Clone(data),
		contentType: contentType,
		metadata:    copyMap(metadata),
		writes:      writes + 1,
	}
	return nil
}

// Presign returns a memory:// link carrying the expiry; only existing keys are signed
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, exists := s.data[key]
	s.mu.RUnlock()
	if !exists {
		return "", blobstore.ErrNotFound
	}

	u := url.URL{
		Scheme:   "memory",
		Host:     s.bucket,
		Path:     "/" + key,
		RawQuery: url.Values{"expires": {fmt.Sprint(s.now().Add(ttl).Unix())}}.Encode(),
	}
	return u.String(), nil
}

// Writes reports how many times key has been written
func (s *Store) Writes(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.data[key]; ok {
		return e.writes
	}
	return 0
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ blobstore.Store = (*Store)(nil)
