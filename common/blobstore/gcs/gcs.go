// Package gcs provides a blobstore.Store for Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/mattermanifest/image-processing/common/blobstore"
)

// maxSignedURLExpiry is the V4 signing limit enforced by GCS
const maxSignedURLExpiry = 7 * 24 * time.Hour

// Store implements blobstore.Store on one GCS bucket
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a GCS store with the given shared client and bucket name
func New(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Bucket returns the bucket name
func (s *Store) Bucket() string { return s.bucket }

// Get opens a reader on the object
func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	reader, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: gs://%s/%s", blobstore.ErrNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("gcs get %s: %w", key, err)
	}

	return &blobstore.Object{
		Body:        reader,
		ContentType: reader.Attrs.ContentType,
		Size:        reader.Attrs.Size,
	}, nil
}

// Put writes data at key with associated metadata
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	writer := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = contentType
	if len(metadata) > 0 {
		writer.Metadata = metadata
	}

	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("gcs put %s: %w", key, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("gcs put %s: %w", key, err)
	}
	return nil
}

// Presign generates a V4 signed GET URL using the client's credentials
func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl > maxSignedURLExpiry {
		return "", fmt.Errorf("expiry duration exceeds maximum of 7 days")
	}

	signedURL, err := s.client.Bucket(s.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}
	return signedURL, nil
}

var _ blobstore.Store = (*Store)(nil)
