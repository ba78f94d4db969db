package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/princeprakhar/biz-directory/internal/config"
)

var (
	ErrLogoTooLarge    = errors.New("logo exceeds the size limit")
	ErrUnsupportedLogo = errors.New("logo is not a supported image type")
)

var logoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// LogoUploader is the image host as seen by the business services.
type LogoUploader interface {
	Enabled() bool
	UploadLogo(ctx context.Context, r io.Reader) (*LogoUpload, error)
	DeleteLogo(ctx context.Context, key string) error
}

type LogoUpload struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// LogoStore keeps business logos in an S3 bucket.
type LogoStore struct {
	client    s3iface.S3API
	bucket    string
	publicURL string
	maxBytes  int64
}

// NewLogoStore builds an S3 client from cfg. Without a bucket the store is
// disabled and listings are created without logos.
func NewLogoStore(cfg *config.Config) (*LogoStore, error) {
	if cfg.S3Bucket == "" {
		return &LogoStore{}, nil
	}

	awsCfg := &aws.Config{Region: aws.String(cfg.S3Region)}
	if cfg.S3AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.S3AccessKey, cfg.S3SecretKey, "")
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}

	publicURL := cfg.AssetBaseURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
	}
	return NewLogoStoreWithClient(s3.New(sess), cfg.S3Bucket, publicURL, cfg.MaxLogoBytes), nil
}

func NewLogoStoreWithClient(client s3iface.S3API, bucket, publicURL string, maxBytes int64) *LogoStore {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &LogoStore{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
		maxBytes:  maxBytes,
	}
}

func (s *LogoStore) Enabled() bool {
	return s.client != nil
}

// UploadLogo sniffs the image type from its content, rejects anything that is
// not a web image, and stores it under a fresh key.
func (s *LogoStore) UploadLogo(ctx context.Context, r io.Reader) (*LogoUpload, error) {
	if !s.Enabled() {
		return nil, errors.New("logo storage is not configured")
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read logo: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrLogoTooLarge, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), logoTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLogo, mtype.String())
	}

	key := fmt.Sprintf("logos/%s/%s%s", time.Now().UTC().Format("2006/01"), uuid.NewString(), mtype.Extension())
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(mtype.String()),
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload logo to s3: %w", err)
	}

	return &LogoUpload{
		Key:         key,
		URL:         s.publicURL + "/" + key,
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

func (s *LogoStore) DeleteLogo(ctx context.Context, key string) error {
	if key == "" || !s.Enabled() {
		return nil
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete logo %s: %w", key, err)
	}
	return nil
}
