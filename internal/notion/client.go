// Package notion implements the record source against the Notion API: it
// finds cases ready for download and writes status and shared-link mutations
// back to their pages.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

// Property names in the case database. These are fixed by the database
// schema, not by this code.
const (
	propStatus     = "Download Status"
	propLink1      = "Download Link"
	propLink2      = "Download Link (2)"
	propLink3      = "Download Link (3)"
	propLinksMulti = "Download Links (4)"
	propLogin      = "Download Login"
	propSuspect    = "Suspect"
	propSharedLink = "Dropbox URL"
)

// Client talks to the Notion API over HTTP with bounded retries on 429 and
// 5xx responses.
type Client struct {
	baseURL    string
	token      string
	databaseID string
	apiVersion string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	logger     observability.Logger
}

// Options configures a Client. Zero values get teacher-tested defaults.
type Options struct {
	BaseURL    string
	Token      string
	DatabaseID string
	APIVersion string
	HTTPClient *http.Client
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Logger     observability.Logger
}

// New creates a Client from explicit options.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.notion.com"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "2022-06-28"
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		databaseID: opts.DatabaseID,
		apiVersion: apiVersion,
		httpClient: httpClient,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		maxDelay:   maxDelay,
		logger:     opts.Logger,
	}
}

// NewFromConfig creates a Client from the loaded configuration.
func NewFromConfig(cfg *config.NotionConfig, logger observability.Logger) *Client {
	return New(Options{
		BaseURL:    cfg.BaseURL,
		Token:      cfg.APIKey,
		DatabaseID: cfg.DatabaseID,
		APIVersion: cfg.APIVersion,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
}

// SetStatus updates the case's status select field.
func (c *Client) SetStatus(ctx context.Context, pageID string, status caserecord.Status) error {
	payload := map[string]any{
		"properties": map[string]any{
			propStatus: map[string]any{
				"select": map[string]any{"name": string(status)},
			},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, payload, nil); err != nil {
		return fmt.Errorf("%w: set status %q on %s: %v", ErrRecordUpdate, status, pageID, err)
	}
	return nil
}

// SetSharedLink writes the shared folder URL back to the case.
func (c *Client) SetSharedLink(ctx context.Context, pageID, link string) error {
	payload := map[string]any{
		"properties": map[string]any{
			propSharedLink: map[string]any{"url": link},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/v1/pages/"+pageID, payload, nil); err != nil {
		return fmt.Errorf("%w: set shared link on %s: %v", ErrRecordUpdate, pageID, err)
	}
	return nil
}

// do sends one JSON request with retry on 429/5xx, honoring Retry-After and
// backing off exponentially up to maxDelay. The response body is decoded into
// out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var bodyBytes []byte
	if payload != nil {
		var err error
		bodyBytes, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	url := c.baseURL + path

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if bodyBytes != nil {
			body = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Notion-Version", c.apiVersion)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, "")); waitErr != nil {
					return waitErr
				}
				continue
			}
			return err
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return readErr
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			if out == nil {
				return nil
			}
			return json.Unmarshal(respBody, out)
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode >= 500 && resp.StatusCode <= 599)
		if retryable && attempt < c.maxRetries {
			if waitErr := sleepContext(ctx, c.retryDelay(attempt+1, resp.Header.Get("Retry-After"))); waitErr != nil {
				return waitErr
			}
			continue
		}

		return apiError(resp.StatusCode, respBody)
	}
}

// apiError extracts the Notion error code/message when present.
func apiError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		if parsed.Code != "" {
			return fmt.Errorf("notion api: status=%d code=%s message=%s", status, parsed.Code, parsed.Message)
		}
		message = parsed.Message
	}
	return fmt.Errorf("notion api: status=%d message=%s", status, message)
}

func (c *Client) retryDelay(attempt int, retryAfterHeader string) time.Duration {
	if retryAfter := parseRetryAfterSeconds(retryAfterHeader); retryAfter > 0 {
		if retryAfter > c.maxDelay {
			return c.maxDelay
		}
		return retryAfter
	}
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= c.maxDelay {
			return c.maxDelay
		}
	}
	if delay > c.maxDelay {
		return c.maxDelay
	}
	return delay
}

func parseRetryAfterSeconds(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
