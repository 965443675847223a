package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// S3Uploader puts assets straight into the bucket the CMS media library is
// served from, bypassing the upload endpoint. Used for deployments where the
// upload plugin and the site share one bucket.
type S3Uploader struct {
	svc       *s3.S3
	bucket    string
	publicURL string
}

// NewS3Uploader creates an uploader for the configured bucket.
func NewS3Uploader(cfg config.UploadConfig) (*S3Uploader, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For local testing with S3-compatible stores.
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	return &S3Uploader{
		svc:       s3.New(sess),
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload puts the object and returns its public URL. Direct S3 placement has
// no media-library id, so ID stays zero and entries reference the asset by
// URL only.
func (u *S3Uploader) Upload(ctx context.Context, filename, contentType string, data []byte) (*models.UploadedAsset, error) {
	_, err := u.svc.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(filename),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to put object %s: %w", filename, err)
	}

	return &models.UploadedAsset{
		Name: filename,
		URL:  u.publicURL + "/" + filename,
	}, nil
}
