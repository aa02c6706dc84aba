package fetch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/google/uuid"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

// Selector lists for login forms, tried in order. Portals vary; the first
// match wins.
var (
	usernameSelectors = []string{
		`input[type="email"]`,
		`input[name="username"]`,
		`input[name="email"]`,
		`input[id*="user"]`,
		`input[type="text"]`,
	}
	passwordSelectors = []string{
		`input[type="password"]`,
	}
	submitSelectors = []string{
		`button[type="submit"]`,
		`input[type="submit"]`,
	}
)

const (
	elementWait = 3 * time.Second
	settleWait  = 15 * time.Second
)

// BrowserStrategy drives a real Chromium session for links the direct
// strategy cannot handle: login portals and JS-gated download pages. The
// browser connection is shared; each link gets its own incognito context so
// sessions never leak between cases.
type BrowserStrategy struct {
	controlURL string
	timeout    time.Duration
	logger     observability.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserStrategy builds the strategy. The browser is connected lazily on
// first use.
func NewBrowserStrategy(cfg *config.FetchConfig, logger observability.Logger) *BrowserStrategy {
	return &BrowserStrategy{
		controlURL: cfg.BrowserControlURL,
		timeout:    cfg.BrowserTimeout,
		logger:     logger,
	}
}

func (b *BrowserStrategy) Name() string { return "browser" }

// Fetch navigates to the link, logs in when credentials are present, clicks
// a download trigger if one is visible, and waits for the browser to finish
// writing the file.
func (b *BrowserStrategy) Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	browser, err := b.connect()
	if err != nil {
		return "", err
	}

	incognito, err := browser.Incognito()
	if err != nil {
		return "", fmt.Errorf("incognito context: %w", err)
	}
	incognito = incognito.Context(ctx)

	page, err := stealth.Page(incognito)
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	wait := incognito.WaitDownload(destDir)

	// navigating straight at a file aborts the page load when the download
	// starts; that is success, not failure
	if err := page.Timeout(b.timeout).Navigate(link.URL); err != nil && !isDownloadAbort(err) {
		return "", fmt.Errorf("navigate: %w", err)
	}
	_ = page.Timeout(settleWait).WaitLoad()

	if !creds.Empty() {
		b.login(ctx, page, creds)
	}
	b.triggerDownload(ctx, page)

	info, err := b.awaitDownload(ctx, wait)
	if err != nil {
		return "", err
	}

	downloaded := filepath.Join(destDir, info.GUID)
	name := sanitizeFilename(info.SuggestedFilename)
	if name == "" {
		name = "download"
	}
	localPath := filepath.Join(destDir, uuid.NewString()[:8]+"_"+name)
	if err := os.Rename(downloaded, localPath); err != nil {
		return "", fmt.Errorf("rename download: %w", err)
	}
	return localPath, nil
}

// Close shuts down the shared browser connection.
func (b *BrowserStrategy) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	b.browser = nil
	return err
}

func (b *BrowserStrategy) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}

	controlURL := b.controlURL
	if controlURL == "" {
		launched, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		controlURL = launched
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	b.browser = browser
	return browser, nil
}

// login fills the first matching username/password fields and submits. A
// page without a password field is not a login wall, so this is best-effort.
func (b *BrowserStrategy) login(ctx context.Context, page *rod.Page, creds service.Credentials) {
	passEl, ok := firstElement(page, passwordSelectors)
	if !ok {
		return
	}
	if userEl, ok := firstElement(page, usernameSelectors); ok {
		_ = userEl.Input(creds.Username)
	}
	_ = passEl.Input(creds.Password)

	if submitEl, ok := firstElement(page, submitSelectors); ok {
		_ = submitEl.Click(proto.InputMouseButtonLeft, 1)
	} else {
		_ = passEl.Type(input.Enter)
	}

	b.logger.Debug(ctx, "submitted login form", nil)
	_ = page.Timeout(settleWait).WaitLoad()
}

// triggerDownload clicks the first element whose text mentions downloading.
// Pages that start the download on navigation have nothing to click, so a
// miss is fine.
func (b *BrowserStrategy) triggerDownload(ctx context.Context, page *rod.Page) {
	el, err := page.Timeout(elementWait).ElementR(`a, button, input[type="submit"], [role="button"]`, "(?i)download")
	if err != nil {
		return
	}
	if err := el.CancelTimeout().Click(proto.InputMouseButtonLeft, 1); err == nil {
		b.logger.Debug(ctx, "clicked download trigger", nil)
	}
}

func (b *BrowserStrategy) awaitDownload(ctx context.Context, wait func() *proto.PageDownloadWillBegin) (*proto.PageDownloadWillBegin, error) {
	done := make(chan *proto.PageDownloadWillBegin, 1)
	go func() { done <- wait() }()

	select {
	case info := <-done:
		if info == nil {
			return nil, errors.New("browser reported no download")
		}
		return info, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(b.timeout):
		return nil, fmt.Errorf("no download started within %s", b.timeout)
	}
}

func firstElement(page *rod.Page, selectors []string) (*rod.Element, bool) {
	for _, sel := range selectors {
		el, err := page.Timeout(elementWait).Element(sel)
		if err == nil && el != nil {
			return el.CancelTimeout(), true
		}
	}
	return nil, false
}

// isDownloadAbort reports whether a navigation failed because the page load
// turned into a file download. Only navigation errors qualify; the abort
// reason comes from the browser's network stack.
func isDownloadAbort(err error) bool {
	var nav *rod.NavigationError
	return errors.As(err, &nav) && strings.Contains(nav.Reason, "ERR_ABORTED")
}
