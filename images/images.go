// Package images uploads post images to the remote hosting service and
// hands back public URLs. There is no local fallback storage; uploads
// either land remotely or fail.
package images

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrDisallowedType = errors.New("file type not allowed")
	ErrUploadFailed   = errors.New("image upload failed")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Store is the contract the blog handlers depend on.
type Store interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// HostedStore uploads to the image-hosting HTTP API.
type HostedStore struct {
	baseURL string
	apiKey  string
	folder  string
	client  *http.Client
}

func NewHostedStore(baseURL, apiKey, folder string) *HostedStore {
	return &HostedStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		folder:  folder,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HostedStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrDisallowedType, ext)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("folder", s.folder); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	// Unique name so repeated uploads of the same file never collide.
	name := fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(filename))
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%w: remote returned %d", ErrUploadFailed, resp.StatusCode)
	}

	var result struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", ErrUploadFailed, err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("%w: remote returned no url", ErrUploadFailed)
	}

	return result.URL, nil
}

// Delete asks the remote host to remove an uploaded image. Used as the
// compensating action when a post write fails after its uploads landed.
func (s *HostedStore) Delete(ctx context.Context, url string) error {
	payload, err := json.Marshal(map[string]string{"url": url})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/delete", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned %d", resp.StatusCode)
	}
	return nil
}
