package storage

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	b, _ := io.ReadAll(params.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestAvatarKey(t *testing.T) {
	tests := []struct {
		contentType string
		suffix      string
	}{
		{"image/png", ".png"},
		{"IMAGE/JPEG", ".jpg"},
		{"image/webp", ".webp"},
		{"application/octet-stream", ".bin"},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			key := AvatarKey("u1", tt.contentType)
			assert.True(t, strings.HasPrefix(key, "avatars/u1/"))
			assert.True(t, strings.HasSuffix(key, tt.suffix))
		})
	}

	assert.NotEqual(t, AvatarKey("u1", "image/png"), AvatarKey("u1", "image/png"))
}

func TestPutAvatar(t *testing.T) {
	client := &fakeS3{}
	bucket := newAvatarBucket(client, "avatars-bucket", "https://cdn.example/")

	url, err := bucket.PutAvatar(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "avatars-bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, int64(9), aws.ToInt64(client.input.ContentLength))
	assert.Equal(t, "png-bytes", client.body)
	assert.Equal(t, "https://cdn.example/"+aws.ToString(client.input.Key), url)
}

func TestPutAvatar_Error(t *testing.T) {
	bucket := newAvatarBucket(&fakeS3{err: stderrors.New("access denied")}, "b", "https://cdn.example")

	_, err := bucket.PutAvatar(context.Background(), "u1", "image/png", strings.NewReader("x"), 1)
	assert.Error(t, err)
}
