// Package minio provides a blobstore.Store backed by minio-go.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/mattermanifest/image-processing/common/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// NewClient builds a minio client shared by the stores of the process
func NewClient(cfg Config) (*minio.Client, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}
	return minio.New(cfg.Endpoint, opts)
}

type Store struct {
	cl     *minio.Client
	bucket string
}

func New(cl *minio.Client, bucket string) *Store {
	return &Store{cl: cl, bucket: bucket}
}

func (s *Store) Bucket() string { return s.bucket }

// Get stats the object first so a missing key surfaces before the body is handed out
func (s *Store) Get(ctx context.Context, key string) (*blobstore.Object, error) {
	obj, err := s.cl.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(key, err)
	}
	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapErr(key, err)
	}
	return &blobstore.Object{
		Body:        obj,
		ContentType: info.ContentType,
		Size:        info.Size,
		Metadata:    info.UserMetadata,
	}, nil
}

func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := s.cl.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", key, err)
	}
	return nil
}

func (s *Store) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.cl.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign %s: %w", key, err)
	}
	return u.String(), nil
}

func mapErr(key string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %s", blobstore.ErrNotFound, key)
	}
	return fmt.Errorf("minio get %s: %w", key, err)
}

var _ blobstore.Store = (*Store)(nil)
