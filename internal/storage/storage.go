// Package storage provides the object storage boundary for audio artifacts.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Store is the object storage boundary used by the upload handlers and the
// transcription pipeline. Failures surface as fatal step errors.
type Store interface {
	// Download fetches an object's bytes by path.
	Download(ctx context.Context, path string) ([]byte, error)
	// Upload stores bytes at path and returns the stored path.
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// CreateSignedUploadURL issues a URL a client can PUT an object to.
	CreateSignedUploadURL(ctx context.Context, path string) (string, error)
}

// SupabaseStore implements Store against the Supabase Storage REST API.
type SupabaseStore struct {
	baseURL    string
	secretKey  string
	bucket     string
	httpClient *http.Client
}

// NewSupabaseStore creates a store for one bucket of a Supabase project.
func NewSupabaseStore(baseURL, secretKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  secretKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *SupabaseStore) objectURL(kind, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s%s/%s", s.baseURL, kind, s.bucket, escapePath(path))
}

// escapePath keeps slashes while escaping each segment.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.Join(segments, "/")
}

func (s *SupabaseStore) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Download fetches an object's bytes by path.
func (s *SupabaseStore) Download(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL("", path), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", path, err)
	}
	return body, nil
}

// Upload stores bytes at path and returns the stored path.
func (s *SupabaseStore) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("", path), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	body, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}

	var result struct {
		Key string `json:"Key"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Key == "" {
		// The path we wrote to is authoritative even when the response
		// body shape changes between storage versions.
		return path, nil
	}
	return strings.TrimPrefix(result.Key, s.bucket+"/"), nil
}

// CreateSignedUploadURL issues a URL a client can PUT an object to.
func (s *SupabaseStore) CreateSignedUploadURL(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL("upload/sign/", path), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build signed url request: %w", err)
	}

	body, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to create signed upload url for %s: %w", path, err)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("malformed signed url response: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("signed url response missing url field")
	}
	return s.baseURL + "/storage/v1" + result.URL, nil
}
