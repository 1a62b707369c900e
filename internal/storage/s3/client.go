package s3

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsconfig "github.com/scttfrdmn/cargoship/pkg/aws/config"
	cargoships3 "github.com/scttfrdmn/cargoship/pkg/aws/s3"

	"github.com/s3bridge/s3bridge/internal/credentials"
)

// newClient builds the S3 client and presign client from resolved
// credentials. The credentials come exclusively from the configured
// provider; the SDK's ambient credential chain is bypassed.
func newClient(ctx context.Context, creds credentials.Credentials, cfg *Config) (*s3.Client, *s3.PresignClient, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}

	region := creds.Region
	if region == "" {
		region = cfg.Region
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithRetryMaxAttempts(cfg.MaxRetries),
		config.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	return client, s3.NewPresignClient(client), nil
}

// newTransporter builds a CargoShip transporter targeting one bucket.
// Transporters are cheap to construct, so the accelerated upload path
// creates one per call rather than pinning the adapter to a single bucket.
func newTransporter(client *s3.Client, bucket string, cfg *Config, logger *slog.Logger) *cargoships3.Transporter {
	cargoConfig := awsconfig.S3Config{
		Bucket:             bucket,
		StorageClass:       awsconfig.StorageClassStandard,
		MultipartThreshold: cfg.AcceleratedUploadThreshold,
		MultipartChunkSize: 16 * 1024 * 1024,
		Concurrency:        cfg.UploadConcurrency,
	}

	logger.Debug("accelerated upload transporter created",
		"bucket", bucket,
		"threshold", cfg.AcceleratedUploadThreshold,
		"concurrency", cfg.UploadConcurrency)

	return cargoships3.NewTransporter(client, cargoConfig)
}
