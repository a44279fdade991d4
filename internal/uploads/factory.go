package uploads

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/markflow/markflow/internal/config"
	"github.com/markflow/markflow/internal/uploads/drivers"
)

// NewStorageFromConfig builds the storage driver selected by STORAGE_TYPE.
func NewStorageFromConfig(ctx context.Context, cfg config.StorageConfig) (StorageDriver, error) {
	switch cfg.Type {
	case "local":
		return drivers.NewLocalFSDriver(cfg.LocalBaseDir, cfg.LocalPublicURL)
	case "s3":
		return newS3DriverFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}

func newS3DriverFromConfig(ctx context.Context, cfg config.StorageConfig) (StorageDriver, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// Custom endpoints (MinIO and friends) need path-style addressing.
			o.UsePathStyle = true
		}
	})

	return drivers.NewS3Driver(client, cfg.S3Bucket, cfg.S3PublicURL), nil
}
