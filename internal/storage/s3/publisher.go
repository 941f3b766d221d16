package s3

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/rangedl/internal/utils"
)

const DefaultPartSize = 16 * 1024 * 1024

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Publisher copies finished downloads to S3 with multipart uploads.
type Publisher struct {
	uploader uploadAPI
}

func NewPublisher(ctx context.Context, profile string, concurrency int) (*Publisher, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMode(aws.RetryModeAdaptive),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: error loading AWS config: %v", utils.ErrPublish, err)
	}
	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = DefaultPartSize
		u.Concurrency = max(1, concurrency)
	})
	return &Publisher{uploader: uploader}, nil
}

// Publish uploads localPath to the s3://bucket/key URI. A URI ending in "/"
// receives the local file name. The local file is never removed.
func (p *Publisher) Publish(ctx context.Context, localPath, uri string) (string, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return "", err
	}
	if key == "" || strings.HasSuffix(key, "/") {
		key += filepath.Base(localPath)
	}
	file, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: error opening %s: %v", utils.ErrPublish, localPath, err)
	}
	defer file.Close()
	log.Info().Str("op", "s3/publisher").Msgf("uploading %s to s3://%s/%s", localPath, bucket, key)
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   file,
	})
	if err != nil {
		return "", fmt.Errorf("%w: error uploading to s3://%s/%s: %v", utils.ErrPublish, bucket, key, err)
	}
	location := fmt.Sprintf("s3://%s/%s", bucket, key)
	if out != nil && out.Location != "" {
		log.Debug().Str("op", "s3/publisher").Str("location", out.Location).Msg("upload complete")
	}
	return location, nil
}

func ParseS3URI(uri string) (string, string, error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not an s3:// URI", utils.ErrInvalidInput, uri)
	}
	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%w: missing bucket in %q", utils.ErrInvalidInput, uri)
	}
	return bucket, key, nil
}
