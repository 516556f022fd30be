// Package remote implements the HTTP client for the study session server.
//
// The server exposes three workspace endpoints per study:
//
//	POST /projects/workspace/sync_up/<study-id>      multipart upload of local files
//	GET  /projects/workspace/sync_down/<study-id>/<filename>  JSON {"content": "..."}
//	POST /projects/workspace/close/<study-id>        best-effort session close
//
// A 404 on sync_down means the server has nothing for that file; callers
// receive (nil, false, nil) rather than an error. All requests are paced
// through a client-side rate limiter so bursts of per-file downloads do not
// hammer the server.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marmos91/studysync/internal/logger"
	"github.com/marmos91/studysync/internal/ratelimiter"
	"github.com/marmos91/studysync/pkg/storage"
	"github.com/marmos91/studysync/pkg/study"
)

// Error represents a non-success response from the session server.
type Error struct {
	// StatusCode is the HTTP status the server returned.
	StatusCode int

	// Filename is the file involved, when the operation targets one.
	Filename string

	// Message is a short description, including any response body excerpt.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Filename != "" {
		return fmt.Sprintf("server returned %d for %s: %s", e.StatusCode, e.Filename, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Config contains the settings for a session server client.
type Config struct {
	// BaseURL is the server root, e.g. "https://study.example.org".
	BaseURL string `mapstructure:"base_url" validate:"required,url"`

	// Timeout bounds each HTTP request. Zero means 30 seconds.
	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond paces outgoing requests. Zero means unlimited.
	RequestsPerSecond uint `mapstructure:"requests_per_second"`

	// Burst is the rate limiter burst size. Zero defaults to the
	// sustained rate.
	Burst uint `mapstructure:"burst"`
}

// Client talks to the study session server. It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimiter.RateLimiter
}

// New creates a session server client from the given configuration.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("server base URL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid server base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		limiter: ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst),
	}, nil
}

// SyncUp uploads the payload's files as a single multipart request.
// An empty payload is a no-op and performs no request.
func (c *Client) SyncUp(ctx context.Context, studyID study.ID, payload *storage.UploadPayload) error {
	if payload.Count() == 0 {
		logger.Debug("Sync up skipped for study %s: no local files", studyID)
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for _, file := range payload.Files {
		part, err := writer.CreateFormFile(file.Name, file.Name)
		if err != nil {
			return fmt.Errorf("failed to build multipart field for %s: %w", file.Name, err)
		}
		if _, err := part.Write(file.Content); err != nil {
			return fmt.Errorf("failed to write multipart content for %s: %w", file.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/projects/workspace/sync_up/%s", c.baseURL, url.PathEscape(string(studyID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to build sync up request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sync up failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: bodyExcerpt(resp.Body)}
	}

	logger.Debug("Synced %d file(s) up for study %s", payload.Count(), studyID)
	return nil
}

// syncDownResponse is the JSON body returned by the sync_down endpoint.
type syncDownResponse struct {
	Content string `json:"content"`
}

// SyncDown fetches one file's content from the server.
//
// Returns:
//   - content, true, nil when the server has the file
//   - nil, false, nil when the server returns 404 (nothing to sync)
//   - nil, false, error on any other failure
func (c *Client) SyncDown(ctx context.Context, studyID study.ID, filename string) ([]byte, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, err
	}

	endpoint := fmt.Sprintf("%s/projects/workspace/sync_down/%s/%s",
		c.baseURL, url.PathEscape(string(studyID)), url.PathEscape(filename))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build sync down request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("sync down failed for %s: %w", filename, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		logger.Debug("No server copy of %s for study %s", filename, studyID)
		return nil, false, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &Error{
			StatusCode: resp.StatusCode,
			Filename:   filename,
			Message:    bodyExcerpt(resp.Body),
		}
	}

	var decoded syncDownResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, false, fmt.Errorf("failed to decode sync down response for %s: %w", filename, err)
	}

	return []byte(decoded.Content), true, nil
}

// CloseSession notifies the server that the client is shutting down.
// This is best-effort: callers typically log failures and move on.
func (c *Client) CloseSession(ctx context.Context, studyID study.ID) error {
	endpoint := fmt.Sprintf("%s/projects/workspace/close/%s", c.baseURL, url.PathEscape(string(studyID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build close request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session close failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Message: bodyExcerpt(resp.Body)}
	}

	return nil
}

// bodyExcerpt reads a short prefix of a response body for error messages.
func bodyExcerpt(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 256))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	return strings.TrimSpace(string(data))
}
