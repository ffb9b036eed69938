package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sbpickleball/match_app/internal/config"
	"github.com/sbpickleball/match_app/pkg/logger"
)

// putObjectAPI is the part of *s3.Client used for uploads.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// AvatarBucket stores profile pictures in an S3 compatible bucket (R2, MinIO, S3).
type AvatarBucket struct {
	client    putObjectAPI
	bucket    string
	publicURL string
}

func NewAvatarBucket(ctx context.Context, cfg *config.Config) (*AvatarBucket, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.StorageRegion),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey, cfg.StorageSecretKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.StorageEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.StoragePublicURL
	if publicURL == "" {
		publicURL = strings.TrimRight(cfg.StorageEndpoint, "/") + "/" + cfg.StorageBucket
	}

	logger.Info("Avatar storage configured", "bucket", cfg.StorageBucket)
	return newAvatarBucket(client, cfg.StorageBucket, publicURL), nil
}

func newAvatarBucket(client putObjectAPI, bucket, publicURL string) *AvatarBucket {
	return &AvatarBucket{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AvatarKey is the object key for a new upload. Every upload gets a fresh key
// so caches never serve a stale picture.
func AvatarKey(userID, contentType string) string {
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		ext = ".bin"
	}
	return fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), ext)
}

func (b *AvatarBucket) PutAvatar(ctx context.Context, userID, contentType string, body io.Reader, size int64) (string, error) {
	key := AvatarKey(userID, contentType)

	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}

	return fmt.Sprintf("%s/%s", b.publicURL, key), nil
}
