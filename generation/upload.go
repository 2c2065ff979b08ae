package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUploadIncomplete is returned when the upload succeeds but the
	// reference metadata needed to use the file is missing.
	ErrUploadIncomplete = errors.New("upload completed without file reference metadata")

	// ErrProcessingTimeout is returned when the poll attempt budget is exhausted.
	ErrProcessingTimeout = errors.New("media processing did not finish in time")

	// ErrProcessingFailed is returned when the service reports a failed state.
	ErrProcessingFailed = errors.New("media processing failed")
)

// UploadedFile identifies media in the service's store.
type UploadedFile struct {
	Name string
	URI  string
}

// processing states as reported by the service
const (
	stateProcessing = "PROCESSING"
	stateReady      = "ACTIVE"
	stateFailed     = "FAILED"
)

type fileMetadata struct {
	Name  string `json:"name"`
	URI   string `json:"uri"`
	State string `json:"state"`
}

type uploadResponse struct {
	File fileMetadata `json:"file"`
}

// Upload pushes a local video into the service's media store and returns its
// reference. The file is usually not ready immediately; callers follow up
// with AwaitReady.
func (c *Client) Upload(ctx context.Context, path string) (*UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open media file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat media file: %w", err)
	}

	url := fmt.Sprintf("%s/upload/v1beta/files?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, f)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-Upload-File-Name", filepath.Base(path))
	req.ContentLength = info.Size()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("upload returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}

	if out.File.Name == "" || out.File.URI == "" {
		return nil, ErrUploadIncomplete
	}
	return &UploadedFile{Name: out.File.Name, URI: out.File.URI}, nil
}

// AwaitReady polls the file's processing status at a fixed interval for a
// bounded number of attempts. A failed state aborts; a missing or unknown
// state is treated as ready, which is the service default.
func (c *Client) AwaitReady(ctx context.Context, name string, interval time.Duration, maxAttempts int) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		state, err := c.fileState(ctx, name)
		if err != nil {
			return err
		}

		switch state {
		case stateProcessing:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		case stateFailed:
			return fmt.Errorf("%w: file %s", ErrProcessingFailed, name)
		default:
			// ACTIVE, empty, or anything unrecognized: proceed.
			return nil
		}
	}
	return fmt.Errorf("%w: %d attempts", ErrProcessingTimeout, maxAttempts)
}

func (c *Client) fileState(ctx context.Context, name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	url := fmt.Sprintf("%s/v1beta/%s?key=%s", c.baseURL, name, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to poll status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status poll returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var meta fileMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return "", fmt.Errorf("failed to decode status response: %w", err)
	}
	return meta.State, nil
}
