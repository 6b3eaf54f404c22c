package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var ErrUnsupportedContentType = errors.New("unsupported content type")

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

type Config struct {
	Endpoint        string        `json:"endpoint"`
	Region          string        `json:"region"`
	Bucket          string        `json:"bucket"`
	AccessKeyID     string        `json:"accessKeyID"`
	SecretAccessKey string        `json:"secretAccessKey"`
	PublicBaseURL   string        `json:"publicBaseURL"`
	PresignTTL      time.Duration `json:"presignTTL"`
}

type presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Upload struct {
	URL       string
	Method    string
	Key       string
	PublicURL string
	ExpiresAt time.Time
}

// Storage hands out presigned PUT URLs for an S3 compatible bucket
// (Cloudflare R2 in production).
type Storage struct {
	presign       presigner
	bucket        string
	publicBaseURL string
	ttl           time.Duration
	now           func() time.Time
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newStorage(s3.NewPresignClient(client), cfg), nil
}

func newStorage(p presigner, cfg Config) *Storage {
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &Storage{
		presign:       p,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		ttl:           ttl,
		now:           time.Now,
	}
}

func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.publicBaseURL, key)
}

// PresignThumbnail returns a PUT URL for a session thumbnail. Only png, jpeg
// and webp are accepted.
func (s *Storage) PresignThumbnail(ctx context.Context, sessionID uuid.UUID, contentType string) (*Upload, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, ErrUnsupportedContentType
	}

	key := fmt.Sprintf("thumbnails/%s/%s.%s", sessionID, uuid.New(), ext)

	request, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.ttl
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	return &Upload{
		URL:       request.URL,
		Method:    request.Method,
		Key:       key,
		PublicURL: s.PublicURL(key),
		ExpiresAt: s.now().Add(s.ttl),
	}, nil
}
