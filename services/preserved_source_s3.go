package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// maxPreservedObjectSize bounds how much of the list object is read.
const maxPreservedObjectSize = 1 << 20

// S3PreservedSource reads the preserved list from an object in an
// S3-compatible bucket (incl. R2 and MinIO).
type S3PreservedSource struct {
	client *minio.Client
	bucket string
	key    string
}

func NewS3PreservedSource(cfg S3Config) (*S3PreservedSource, error) {
	if cfg.Endpoint == "" || cfg.AccessKey == "" || cfg.SecretKey == "" || cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("incomplete S3 config")
	}
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, err
		}
		endpoint = u.Host
		useSSL = (u.Scheme == "https")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: region,
		BucketLookup: func() minio.BucketLookupType {
			if cfg.ForcePathStyle {
				return minio.BucketLookupPath
			}
			return minio.BucketLookupAuto
		}(),
	})
	if err != nil {
		return nil, err
	}
	return &S3PreservedSource{client: cli, bucket: cfg.Bucket, key: strings.TrimPrefix(cfg.Key, "/")}, nil
}

func (s *S3PreservedSource) PreservedUsernames(ctx context.Context) ([]string, error) {
	// Bound network time for the fetch
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		c, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		ctx = c
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open preserved list object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, maxPreservedObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read preserved list object: %w", err)
	}
	if len(data) > maxPreservedObjectSize {
		return nil, fmt.Errorf("preserved list object exceeds %d bytes", maxPreservedObjectSize)
	}
	return ParsePreservedList(data)
}
