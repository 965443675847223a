package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// Uploader places a downloaded binary in the asset store.
type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*models.UploadedAsset, error)
}

// Pipeline fetches remote images and hands them to an Uploader.
type Pipeline struct {
	uploader   Uploader
	httpClient *http.Client
	retryCount int
}

// NewPipeline creates an image pipeline over the given uploader. Downloads
// are retried up to retryCount attempts; uploads are never blindly retried,
// an ambiguous upload is resolved by the uploader itself.
func NewPipeline(uploader Uploader, timeout time.Duration, retryCount int) *Pipeline {
	if retryCount < 1 {
		retryCount = 1
	}
	return &Pipeline{
		uploader: uploader,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retryCount: retryCount,
	}
}

// DownloadAndUpload fetches one remote image and uploads it under its
// original filename. Errors are per-image: the caller logs them and proceeds
// without a cover rather than aborting the post.
func (p *Pipeline) DownloadAndUpload(ctx context.Context, imageURL string) (*models.UploadedAsset, error) {
	data, contentType, err := p.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	asset, err := p.uploader.Upload(ctx, filenameFromURL(imageURL), contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", imageURL, err)
	}
	return asset, nil
}

// download fetches the binary with retry and backoff.
func (p *Pipeline) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt < p.retryCount; attempt++ {
		if attempt > 0 {
			waitTime := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(waitTime):
			}
		}

		data, contentType, err := p.downloadOnce(ctx, imageURL)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err

		// Client errors will not resolve on their own.
		var de *DownloadError
		if errors.As(err, &de) && de.StatusCode >= 400 && de.StatusCode < 500 {
			return nil, "", err
		}
	}
	return nil, "", lastErr
}

func (p *Pipeline) downloadOnce(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", &DownloadError{URL: imageURL, Err: err}
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, "", &DownloadError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &DownloadError{URL: imageURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &DownloadError{URL: imageURL, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return data, contentType, nil
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || path.Base(u.Path) == "/" || path.Base(u.Path) == "." {
		return "image"
	}
	return path.Base(u.Path)
}
