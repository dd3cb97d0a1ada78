// Package s3export uploads Packet Trace Store exports to S3 or an
// S3-compatible bucket when a client session's ExportDestination settings
// specify one. Local byte-blob export in pkg/trace
// remains the default and required path; this package only adds the
// optional destination.
package s3export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/osdpgw/gateway/pkg/trace"
)

// Config describes the destination bucket for trace exports.
type Config struct {
	Bucket    string
	KeyPrefix string
	Region    string
	Endpoint  string // optional, for S3-compatible providers (MinIO, R2, ...)
}

// Uploader uploads exported trace blobs to S3, satisfying trace.Uploader.
type Uploader struct {
	client *s3.Client
	bucket string
	prefix string
}

// New builds an Uploader from Config, loading AWS credentials the standard
// way (env vars, shared config, instance profile) via the default config
// chain.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3export: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("s3export: load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Uploader{client: client, bucket: cfg.Bucket, prefix: cfg.KeyPrefix}, nil
}

// Upload puts the exported blob at prefix/key+extension and returns an
// s3:// location string.
func (u *Uploader) Upload(ctx context.Context, key string, format trace.ExportFormat, data []byte) (string, error) {
	fullKey := key + format.Extension
	if u.prefix != "" {
		fullKey = u.prefix + "/" + fullKey
	}

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(fullKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(format.MIMEType),
	})
	if err != nil {
		return "", fmt.Errorf("s3export: put object %s: %w", fullKey, err)
	}

	return fmt.Sprintf("s3://%s/%s", u.bucket, fullKey), nil
}

var _ trace.Uploader = (*Uploader)(nil)
