// Package cms is a thin client for the CMS REST API: collection queries,
// entry create/delete and media uploads.
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/a1exr0/inplaysoft-strapi/internal/config"
	"github.com/a1exr0/inplaysoft-strapi/internal/models"
)

// Client talks to one CMS instance with bearer-token auth.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a CMS API client from configuration.
func NewClient(cfg config.CMSConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiToken: cfg.APIToken,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type listResponse struct {
	Data []models.Entry `json:"data"`
}

type singleResponse struct {
	Data models.Entry `json:"data"`
}

// FindBySlug returns every entry in the kind's collection with exactly the
// given slug. More than one result means the collection holds duplicates.
func (c *Client) FindBySlug(ctx context.Context, kind models.ContentKind, slug string) ([]models.Entry, error) {
	path := fmt.Sprintf("%s?filters[slug][$eq]=%s", kind.CollectionPath(), url.QueryEscape(slug))
	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode slug query response: %w", err)
	}
	return resp.Data, nil
}

// CreateEntry creates one entry in the kind's collection and returns the
// stored record.
func (c *Client) CreateEntry(ctx context.Context, kind models.ContentKind, payload interface{}) (*models.Entry, error) {
	body, err := c.request(ctx, http.MethodPost, kind.CollectionPath(), map[string]interface{}{"data": payload})
	if err != nil {
		return nil, err
	}
	var resp singleResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode create response: %w", err)
	}
	return &resp.Data, nil
}

// DeleteEntry removes an entry, preferring its document identifier and
// falling back to the numeric id when that deletion is rejected.
func (c *Client) DeleteEntry(ctx context.Context, kind models.ContentKind, entry models.Entry) error {
	if entry.DocumentID != "" {
		_, err := c.request(ctx, http.MethodDelete, kind.CollectionPath()+"/"+entry.DocumentID, nil)
		if err == nil {
			return nil
		}
	}
	_, err := c.request(ctx, http.MethodDelete, kind.CollectionPath()+"/"+strconv.Itoa(entry.ID), nil)
	if err != nil {
		return fmt.Errorf("failed to delete entry %d: %w", entry.ID, err)
	}
	return nil
}

// ErrAmbiguousUpload marks an upload that returned a server error even though
// the asset may have been persisted. Callers must re-check the media library
// before treating the upload as failed.
var ErrAmbiguousUpload = errors.New("upload returned a server error, asset state unknown")

// UploadFile streams a binary to the CMS upload endpoint. A 5xx response is
// reported as ErrAmbiguousUpload because the backing store is known to
// persist assets and still answer 500.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, data []byte) (*models.UploadedAsset, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, ErrAmbiguousUpload
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload returned status %d: %s", resp.StatusCode, respBody)
	}

	var assets []models.UploadedAsset
	if err := json.Unmarshal(respBody, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("upload response contained no files")
	}
	return &assets[0], nil
}

// ListFiles returns the media library contents.
func (c *Client) ListFiles(ctx context.Context) ([]models.UploadedAsset, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/upload/files", nil)
	if err != nil {
		return nil, err
	}
	var files []models.UploadedAsset
	if err := json.Unmarshal(body, &files); err != nil {
		return nil, fmt.Errorf("failed to decode file list: %w", err)
	}
	return files, nil
}

// FindUploadedFile searches the media library for a file matching the given
// name, exact match first and then a prefix match on the base name, since the
// CMS may rename uploads.
func (c *Client) FindUploadedFile(ctx context.Context, filename string) (*models.UploadedAsset, error) {
	files, err := c.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	for i := range files {
		if files[i].Name == filename {
			return &files[i], nil
		}
	}
	base := filename
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	for i := range files {
		if strings.HasPrefix(files[i].Name, base) {
			return &files[i], nil
		}
	}
	return nil, nil
}

type namedRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// EnsureAuthor returns the id of the author with the given name, creating it
// if absent.
func (c *Client) EnsureAuthor(ctx context.Context, name, position, team string) (int, error) {
	body, err := c.request(ctx, http.MethodGet, "/api/authors?filters[name][$eq]="+url.QueryEscape(name), nil)
	if err != nil {
		return 0, err
	}
	var existing struct {
		Data []namedRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &existing); err != nil {
		return 0, fmt.Errorf("failed to decode author query: %w", err)
	}
	if len(existing.Data) > 0 {
		return existing.Data[0].ID, nil
	}

	body, err = c.request(ctx, http.MethodPost, "/api/authors", map[string]interface{}{
		"data": map[string]string{
			"name":     name,
			"position": position,
			"team":     team,
		},
	})
	if err != nil {
		return 0, err
	}
	var created struct {
		Data namedRecord `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("failed to decode author create response: %w", err)
	}
	return created.Data.ID, nil
}

// EnsureCategory returns the id of the category with the given slug in the
// named category collection, creating it if absent. collectionPath is
// "/api/categories" or "/api/knowledgebase-categories".
func (c *Client) EnsureCategory(ctx context.Context, collectionPath, name, slug string) (int, error) {
	body, err := c.request(ctx, http.MethodGet, collectionPath+"?filters[slug][$eq]="+url.QueryEscape(slug), nil)
	if err != nil {
		return 0, err
	}
	var existing listResponse
	if err := json.Unmarshal(body, &existing); err != nil {
		return 0, fmt.Errorf("failed to decode category query: %w", err)
	}
	if len(existing.Data) > 0 {
		return existing.Data[0].ID, nil
	}

	body, err = c.request(ctx, http.MethodPost, collectionPath, map[string]interface{}{
		"data": map[string]string{
			"name":        name,
			"slug":        slug,
			"description": name,
		},
	})
	if err != nil {
		return 0, err
	}
	var created singleResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return 0, fmt.Errorf("failed to decode category create response: %w", err)
	}
	return created.Data.ID, nil
}

// request performs one JSON API call and returns the response body. Non-2xx
// statuses are errors carrying the body for diagnosis.
func (c *Client) request(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("CMS API error: %s %s returned status %d: %s", method, path, resp.StatusCode, body)
	}
	return body, nil
}
