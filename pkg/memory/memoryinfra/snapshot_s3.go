package memoryinfra

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/memorai/memorai/pkg/memory"
)

// ObjectPutter is the subset of the S3 client used for snapshots
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Snapshotter uploads reset dumps to a bucket
type S3Snapshotter struct {
	client ObjectPutter
	bucket string
	prefix string
	now    func() time.Time
}

var _ memory.Snapshotter = (*S3Snapshotter)(nil)

func NewS3Snapshotter(client ObjectPutter, bucket, prefix string) *S3Snapshotter {
	return &S3Snapshotter{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// NewS3SnapshotterFromRegion loads the default AWS credential chain for region
func NewS3SnapshotterFromRegion(ctx context.Context, region, bucket, prefix string) (*S3Snapshotter, error) {
	if bucket == "" {
		return nil, fmt.Errorf("snapshot bucket is required for s3 mode")
	}
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return NewS3Snapshotter(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *S3Snapshotter) Save(ctx context.Context, records []memory.Record) (string, error) {
	data, err := encodeSnapshot(records)
	if err != nil {
		return "", err
	}
	key := s.prefix + snapshotName(s.now())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return "s3://" + s.bucket + "/" + key, nil
}
