package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/educare/track_backend/config"
)

func TestPublicURL(t *testing.T) {
	base := newPublicBase("https://cdn.example.com/", "educare")

	tests := []struct {
		key  string
		want string
	}{
		{"students/0190/photo.jpg", "https://cdn.example.com/educare/students/0190/photo.jpg"},
		{"/students/0190/photo.jpg", "https://cdn.example.com/educare/students/0190/photo.jpg"},
		{"excuse_letters/p/s/1700000000_doctor note.pdf", "https://cdn.example.com/educare/excuse_letters/p/s/1700000000_doctor%20note.pdf"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, base.url(tt.key), tt.key)
	}
}

func TestPublicURLWithoutBase(t *testing.T) {
	c := &Client{public: newPublicBase("", "educare")}
	assert.Empty(t, c.PublicURL("students/a/photo.jpg"))
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(config.S3Config{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestNewDefaults(t *testing.T) {
	c, err := New(config.S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		Bucket:          "educare",
	})
	require.NoError(t, err)
	assert.Equal(t, defaultPresignTTL, c.ttl)
	assert.Equal(t, "educare", c.bucket)
}
