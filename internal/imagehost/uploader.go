package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// File is one image to upload.
type File struct {
	Name   string
	Reader io.Reader
}

// Uploader sends a batch of files to the image host and returns permanent
// URLs in submission order. Failures are surfaced per-batch, not per-file.
type Uploader interface {
	Upload(ctx context.Context, files []File) ([]string, error)
}

// HTTPUploader posts a multipart batch to a CDN-style upload endpoint.
type HTTPUploader struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPUploader constructs the uploader.
func NewHTTPUploader(uploadURL, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload submits the batch and returns one URL per file, in order.
func (u *HTTPUploader) Upload(ctx context.Context, files []File) ([]string, error) {
	if len(files) == 0 {
		return nil, nil
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("images", f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("x-api-key", u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("image upload failed: http %d", resp.StatusCode)
	}

	var payload struct {
		URLs []string `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload.URLs) != len(files) {
		return nil, fmt.Errorf("image host returned %d urls for %d files", len(payload.URLs), len(files))
	}
	return payload.URLs, nil
}
