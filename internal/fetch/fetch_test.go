package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

func testObservability() (observability.Logger, observability.Metrics) {
	logger := observability.NewJSONLogger("test", "test", "error", io.Discard)
	metrics := observability.NewPrometheusMetrics("test", prometheus.NewRegistry())
	return logger, metrics
}

func directStrategy(timeoutCfg ...config.FetchConfig) *DirectStrategy {
	cfg := config.FetchConfig{
		UserAgent:   "auto-downloader/test",
		MaxFileSize: 1024 * 1024,
	}
	if len(timeoutCfg) > 0 {
		cfg = timeoutCfg[0]
	}
	return NewDirectStrategy(&cfg)
}

func TestDirectStrategy_DownloadsFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "auto-downloader/test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/zip")
		w.Write([]byte("zip-bytes"))
	}))
	defer srv.Close()

	destDir := t.TempDir()
	path, err := directStrategy().Fetch(context.Background(),
		linkset.Link{URL: srv.URL + "/evidence.zip", Slot: "link_1"},
		service.Credentials{}, destDir)
	require.NoError(t, err)

	assert.Contains(t, filepath.Base(path), "evidence.zip")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "zip-bytes", string(data))
}

func TestDirectStrategy_SendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "agent" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("pdf"))
	}))
	defer srv.Close()

	_, err := directStrategy().Fetch(context.Background(),
		linkset.Link{URL: srv.URL + "/report.pdf"},
		service.Credentials{Username: "agent", Password: "hunter2"}, t.TempDir())
	require.NoError(t, err)
}

func TestDirectStrategy_RejectsLoginWalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html>please log in</html>"))
	}))
	defer srv.Close()

	destDir := t.TempDir()
	_, err := directStrategy().Fetch(context.Background(),
		linkset.Link{URL: srv.URL + "/file.zip"}, service.Credentials{}, destDir)
	require.ErrorIs(t, err, ErrNotAFile)

	entries, readErr := os.ReadDir(destDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "no partial file may remain")
}

func TestDirectStrategy_RejectsErrorStatusAndEmptyBody(t *testing.T) {
	t.Run("non-2xx status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := directStrategy().Fetch(context.Background(),
			linkset.Link{URL: srv.URL}, service.Credentials{}, t.TempDir())
		require.Error(t, err)
	})

	t.Run("empty body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
		}))
		defer srv.Close()

		destDir := t.TempDir()
		_, err := directStrategy().Fetch(context.Background(),
			linkset.Link{URL: srv.URL + "/x.bin"}, service.Credentials{}, destDir)
		require.ErrorIs(t, err, ErrNotAFile)

		entries, readErr := os.ReadDir(destDir)
		require.NoError(t, readErr)
		assert.Empty(t, entries)
	})
}

func TestDirectStrategy_EnforcesSizeCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	strategy := directStrategy(config.FetchConfig{
		UserAgent:   "auto-downloader/test",
		MaxFileSize: 1024,
	})

	destDir := t.TempDir()
	_, err := strategy.Fetch(context.Background(),
		linkset.Link{URL: srv.URL + "/big.bin"}, service.Credentials{}, destDir)
	require.ErrorIs(t, err, ErrFileTooLarge)

	entries, readErr := os.ReadDir(destDir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDirectStrategy_PrefersContentDispositionFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", `attachment; filename="export.zip"`)
		w.Write([]byte("zip"))
	}))
	defer srv.Close()

	path, err := directStrategy().Fetch(context.Background(),
		linkset.Link{URL: srv.URL + "/download?id=7"}, service.Credentials{}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "export.zip")
}

// fakeStrategy is a canned Strategy for fallback-order tests.
type fakeStrategy struct {
	name  string
	path  string
	err   error
	calls int
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, error) {
	f.calls++
	return f.path, f.err
}

func TestFetcher_FirstStrategyWins(t *testing.T) {
	logger, metrics := testObservability()
	first := &fakeStrategy{name: "direct", path: "/tmp/a.zip"}
	second := &fakeStrategy{name: "browser"}
	fetcher := NewFetcher(logger, metrics, first, second)

	path, strategy, err := fetcher.Fetch(context.Background(),
		linkset.Link{URL: "http://a/x.zip"}, service.Credentials{}, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.zip", path)
	assert.Equal(t, "direct", strategy)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "fallback must not run after a success")
}

func TestFetcher_FallsThroughToNextStrategy(t *testing.T) {
	logger, metrics := testObservability()
	first := &fakeStrategy{name: "direct", err: ErrNotAFile}
	second := &fakeStrategy{name: "browser", path: "/tmp/b.zip"}
	fetcher := NewFetcher(logger, metrics, first, second)

	path, strategy, err := fetcher.Fetch(context.Background(),
		linkset.Link{URL: "http://a/x.zip"}, service.Credentials{}, t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, "/tmp/b.zip", path)
	assert.Equal(t, "browser", strategy)
	assert.Equal(t, 1, first.calls)
}

func TestFetcher_AllStrategiesFail(t *testing.T) {
	logger, metrics := testObservability()
	errBrowser := errors.New("no download started")
	fetcher := NewFetcher(logger, metrics,
		&fakeStrategy{name: "direct", err: ErrNotAFile},
		&fakeStrategy{name: "browser", err: errBrowser},
	)

	_, _, err := fetcher.Fetch(context.Background(),
		linkset.Link{URL: "http://a/x.zip"}, service.Credentials{}, t.TempDir())

	require.ErrorIs(t, err, ErrFetch)
	// both attempts survive in the joined error
	assert.ErrorIs(t, err, ErrNotAFile)
	assert.ErrorIs(t, err, errBrowser)
}

func TestFetcher_NoStrategies(t *testing.T) {
	logger, metrics := testObservability()
	fetcher := NewFetcher(logger, metrics)

	_, _, err := fetcher.Fetch(context.Background(),
		linkset.Link{URL: "http://a/x.zip"}, service.Credentials{}, t.TempDir())
	require.ErrorIs(t, err, ErrFetch)
}
