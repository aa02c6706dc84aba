package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
)

// DirectStrategy downloads a link with a plain HTTP GET. It refuses to save
// responses that look like web pages rather than files, so login-walled
// links fall through to the browser strategy instead of archiving an HTML
// error page.
type DirectStrategy struct {
	client      *http.Client
	userAgent   string
	maxFileSize int64
}

// NewDirectStrategy builds the strategy from the fetch configuration.
func NewDirectStrategy(cfg *config.FetchConfig) *DirectStrategy {
	return &DirectStrategy{
		client:      &http.Client{Timeout: cfg.Timeout},
		userAgent:   cfg.UserAgent,
		maxFileSize: cfg.MaxFileSize,
	}
}

func (d *DirectStrategy) Name() string { return "direct" }

// Fetch downloads the link into destDir. The local filename keeps the URL's
// base name under a unique prefix so two links to same-named files within
// one case cannot clobber each other.
func (d *DirectStrategy) Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link.URL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", d.userAgent)
	if !creds.Empty() {
		req.SetBasicAuth(creds.Username, creds.Password)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if isWebPage(resp.Header.Get("Content-Type")) {
		return "", fmt.Errorf("%w: content-type %s", ErrNotAFile, resp.Header.Get("Content-Type"))
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}
	localPath := filepath.Join(destDir, uniqueFilename(resp, link.URL))

	out, err := os.Create(localPath)
	if err != nil {
		return "", err
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, d.maxFileSize+1))
	closeErr := out.Close()
	switch {
	case err != nil:
		os.Remove(localPath)
		return "", err
	case closeErr != nil:
		os.Remove(localPath)
		return "", closeErr
	case written == 0:
		os.Remove(localPath)
		return "", fmt.Errorf("%w: empty body", ErrNotAFile)
	case written > d.maxFileSize:
		os.Remove(localPath)
		return "", fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, d.maxFileSize)
	}

	return localPath, nil
}

// isWebPage treats HTML responses as pages, not files. Servers that serve
// real files almost never label them text/html.
func isWebPage(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

// uniqueFilename derives a local filename from the Content-Disposition
// header or the URL path, under a short unique prefix.
func uniqueFilename(resp *http.Response, rawURL string) string {
	name := ""
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		name = params["filename"]
	}
	if name == "" {
		if u, err := url.Parse(rawURL); err == nil {
			name = path.Base(u.Path)
		}
	}
	name = sanitizeFilename(name)
	if name == "" {
		name = "download"
	}
	return uuid.NewString()[:8] + "_" + name
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == string(filepath.Separator) {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 {
			return '_'
		}
		return r
	}, name)
}
