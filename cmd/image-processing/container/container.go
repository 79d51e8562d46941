package container

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"
	"github.com/minio/minio-go/v7"
	"github.com/spf13/afero"

	"github.com/mattermanifest/image-processing/cmd/image-processing/service"
	"github.com/mattermanifest/image-processing/common/blobstore"
	fsstore "github.com/mattermanifest/image-processing/common/blobstore/fs"
	gcsstore "github.com/mattermanifest/image-processing/common/blobstore/gcs"
	"github.com/mattermanifest/image-processing/common/blobstore/memory"
	miniostore "github.com/mattermanifest/image-processing/common/blobstore/minio"
	"github.com/mattermanifest/image-processing/common/blobstore/redisstore"
	s3store "github.com/mattermanifest/image-processing/common/blobstore/s3"
	"github.com/mattermanifest/image-processing/common/bootstrap"
	"github.com/mattermanifest/image-processing/common/codec"
	"github.com/mattermanifest/image-processing/common/config"
)

// Container holds all initialized services and stores (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Codec      codec.Codec

	// Stores
	Origin      blobstore.Store
	Transformed blobstore.Store // nil when caching is disabled

	// Services
	Fetcher     *service.AssetFetcher
	Transformer *service.Transformer
	CacheWriter *service.CacheWriter

	clients *clients
}

// clients are created on first use and shared by every store of the process
type clients struct {
	s3    *awss3.Client
	minio *minio.Client
	gcs   *storage.Client
	fs    afero.Fs
}

// NewContainer initializes all stores and services once
func NewContainer(ctx context.Context, components *bootstrap.Components, c codec.Codec) (*Container, error) {
	cfg := components.Config
	ct := &Container{
		Components: components,
		Codec:      c,
		clients:    &clients{},
	}

	var err error
	ct.Origin, err = ct.newStore(ctx, cfg.Storage.Driver, cfg.Storage.OriginBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create origin store: %w", err)
	}

	if cfg.CachingEnabled() {
		ct.Transformed, err = ct.newStore(ctx, cfg.Storage.TransformedDriver, cfg.Storage.TransformedBucket)
		if err != nil {
			_ = ct.Close()
			return nil, fmt.Errorf("failed to create transformed store: %w", err)
		}
	}

	components.Logger.Info("stores ready",
		"origin_driver", cfg.Storage.Driver,
		"origin_bucket", cfg.Storage.OriginBucket,
		"caching", ct.Transformed != nil,
		"codec", c.Name(),
	)

	// Initialize services (bottom-up: dependencies first)
	ct.Fetcher = service.NewAssetFetcher(
		ct.Origin,
		cfg.Storage.PresignTTL,
		cfg.Storage.InlineLimitBytes,
		components.Reporter,
		components.Logger,
	)
	ct.Transformer = service.NewTransformer(c, components.Reporter, components.Metrics, components.Logger)

	ct.CacheWriter = service.NewCacheWriter(
		ct.Transformed,
		cfg.Cache.TTL,
		components.Reporter,
		components.Metrics,
		components.Logger,
	)

	return ct, nil
}

// Close releases store clients that hold resources
func (ct *Container) Close() error {
	var result *multierror.Error
	if ct.clients.gcs != nil {
		if err := ct.clients.gcs.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close gcs client: %w", err))
		}
	}
	return result.ErrorOrNil()
}

func (ct *Container) newStore(ctx context.Context, driver, bucket string) (blobstore.Store, error) {
	cfg := ct.Components.Config

	switch driver {
	case config.DriverS3:
		if ct.clients.s3 == nil {
			client, err := s3store.NewClient(ctx, s3store.ClientConfig{
				Region:    cfg.Service.Region,
				Endpoint:  cfg.Storage.Endpoint,
				AccessKey: cfg.Storage.AccessKey,
				SecretKey: cfg.Storage.SecretKey,
				PathStyle: cfg.Storage.PathStyle,
			})
			if err != nil {
				return nil, err
			}
			ct.clients.s3 = client
		}
		return s3store.New(ct.clients.s3, bucket), nil

	case config.DriverMinio:
		if ct.clients.minio == nil {
			client, err := miniostore.NewClient(miniostore.Config{
				Endpoint:  cfg.Storage.Endpoint,
				Region:    cfg.Service.Region,
				AccessKey: cfg.Storage.AccessKey,
				SecretKey: cfg.Storage.SecretKey,
				UseSSL:    cfg.Storage.UseSSL,
				PathStyle: cfg.Storage.PathStyle,
			})
			if err != nil {
				return nil, err
			}
			ct.clients.minio = client
		}
		return miniostore.New(ct.clients.minio, bucket), nil

	case config.DriverGCS:
		if ct.clients.gcs == nil {
			client, err := storage.NewClient(ctx)
			if err != nil {
				return nil, fmt.Errorf("gcs client: %w", err)
			}
			ct.clients.gcs = client
		}
		return gcsstore.New(ct.clients.gcs, bucket), nil

	case config.DriverFS:
		if ct.clients.fs == nil {
			ct.clients.fs = afero.NewOsFs()
		}
		return fsstore.New(ct.clients.fs, cfg.Storage.FSRoot, bucket), nil

	case config.DriverMemory:
		return memory.New(bucket), nil

	case config.DriverRedis:
		if ct.Components.Redis == nil {
			return nil, fmt.Errorf("redis store requested but no redis connection was set up")
		}
		return redisstore.New(ct.Components.Redis, bucket, cfg.Cache.MaxAge()), nil
	}

	return nil, fmt.Errorf("unknown store driver: %s", driver)
}
