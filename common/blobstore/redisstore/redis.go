// Package redisstore keeps transformed assets in Redis hashes. It serves as a
// transformed-asset cache only: it cannot presign and is not an origin.
package redisstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	rediscommon "github.com/mattermanifest/image-processing/common/redis"
)

const (
	fieldBody        = "body"
	fieldContentType = "content_type"
	metaPrefix       = "meta:"
)

// Store writes one hash per key under "<bucket>:<key>"
type Store struct {
	client *rediscommon.Client
	bucket string
	ttl    time.Duration
}

// New creates a store; ttl bounds the lifetime of each entry (0 = no expiry)
func New(client *rediscommon.Client, bucket string, ttl time.Duration) *Store {
	return &Store{client: client, bucket: bucket, ttl: ttl}
}

func (s *Store) Bucket() string { return s.bucket }

func (s *Store) redisKey(key string) string {
	return s.bucket + ":" + key
}

func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	fields, err := s.client.GetAllHash(ctx, s.redisKey(key))
	if err != nil {
		return nil, err
	}
	body, ok := fields[fieldBody]
	if !ok {
		return nil, fmt.Errorf("%w: %s", blobstore.ErrNotFound, key)
	}

	var metadata map[string]string
	for k, v := range fields {
		if name, found := strings.CutPrefix(k, metaPrefix); found {
			if metadata == nil {
				metadata = make(map[string]string)
			}
			metadata[name] = v
		}
	}

	return &blobstore.Object{
		Body:        io.NopCloser(bytes.NewReader([]byte(body))),
		ContentType: fields[fieldContentType],
		Size:        int64(len(body)),
		Metadata:    metadata,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	fields := map[string]interface{}{
		fieldBody:        data,
		fieldContentType: contentType,
	}
	for k, v := range metadata {
		fields[metaPrefix+k] = v
	}
	return s.client.SetHashWithExpiry(ctx, s.redisKey(key), fields, s.ttl)
}

func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", blobstore.ErrPresignUnsupported
}

var _ blobstore.Store = (*Store)(nil)
