package minio

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// MinIOAPI abstracts the minio client surface we use, so tests can stub it.
type MinIOAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Client wraps the object store holding refresh-run reports.
type Client struct {
	api    MinIOAPI
	bucket string
	logger logging.Logger
}

func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create minio client")
	}

	c := &Client{api: api, bucket: cfg.Bucket, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}

	log.Info("object storage ready", logging.String("bucket", cfg.Bucket))
	return c, nil
}

// NewClientWithAPI wires a custom API implementation, used by tests.
func NewClientWithAPI(api MinIOAPI, bucket string, log logging.Logger) *Client {
	return &Client{api: api, bucket: bucket, logger: log}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to check bucket").
			WithDetail(c.bucket)
	}
	if exists {
		return nil
	}
	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		// Lost a creation race with another instance.
		if exists, checkErr := c.api.BucketExists(ctx, c.bucket); checkErr == nil && exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to create bucket").
			WithDetail(c.bucket)
	}
	c.logger.Info("bucket created", logging.String("bucket", c.bucket))
	return nil
}
