package storage

import (
	"context"
	"fmt"
	"io"
	"jojarts/models"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the subset of the S3 client the uploader uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores gallery photos in a public-read bucket and hands back
// the object URL, standing in for the external image host.
type S3Uploader struct {
	client ObjectPutter
	bucket string
	region string
	prefix string
}

// NewS3Uploader loads the default AWS credential chain for region.
func NewS3Uploader(ctx context.Context, bucket, region, prefix string) (*S3Uploader, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(cfg), bucket, region, prefix), nil
}

func NewS3UploaderWithClient(client ObjectPutter, bucket, region, prefix string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket, region: region, prefix: strings.Trim(prefix, "/")}
}

// Upload writes body under a fresh key and returns the public URL together
// with the original file name stripped of its extension.
func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, body io.Reader, size int64) (*models.UploadResult, error) {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(base))
	key := uuid.NewString() + ext
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}

	return &models.UploadResult{
		SecureURL:        fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key),
		OriginalFilename: strings.TrimSuffix(base, path.Ext(base)),
	}, nil
}
