package assets

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/a1exr0/inplaysoft-strapi/internal/cms"
	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// NewUploader selects an upload backend from configuration.
func NewUploader(cfg config.UploadConfig, client *cms.Client) (Uploader, error) {
	switch cfg.Provider {
	case "cms", "":
		return NewCMSUploader(client), nil
	case "s3":
		return NewS3Uploader(cfg)
	default:
		return nil, fmt.Errorf("unsupported upload provider: %s", cfg.Provider)
	}
}

// CMSUploader uploads through the CMS media endpoint.
type CMSUploader struct {
	client *cms.Client
}

func NewCMSUploader(client *cms.Client) *CMSUploader {
	return &CMSUploader{client: client}
}

// Upload sends the binary to the CMS upload endpoint. When the endpoint
// answers with a server error the asset may still have been persisted, so the
// media library is re-queried by filename before the upload is declared
// failed. Skipping that check silently drops valid assets.
func (u *CMSUploader) Upload(ctx context.Context, filename, contentType string, data []byte) (*models.UploadedAsset, error) {
	asset, err := u.client.UploadFile(ctx, filename, contentType, data)
	if err == nil {
		return asset, nil
	}
	if !errors.Is(err, cms.ErrAmbiguousUpload) {
		return nil, err
	}

	log.Printf("upload of %s returned a server error, checking media library", filename)
	found, findErr := u.client.FindUploadedFile(ctx, filename)
	if findErr != nil {
		return nil, fmt.Errorf("upload verification failed for %s: %w", filename, findErr)
	}
	if found == nil {
		return nil, fmt.Errorf("upload of %s failed and no matching file found in media library", filename)
	}
	log.Printf("upload of %s succeeded despite server error, found as %s", filename, found.Name)
	return found, nil
}
