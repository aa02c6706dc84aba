// Package fetch retrieves case files from download links. A cheap direct
// HTTP strategy is tried first; links that need a real browser session
// (login walls, JS-gated downloads) fall through to the browser strategy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

// Strategy is one way of turning a link into a local file.
type Strategy interface {
	Name() string
	// Fetch downloads the link into destDir and returns the local path.
	Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, error)
}

// Fetcher tries its strategies in order until one produces a file.
type Fetcher struct {
	strategies []Strategy
	logger     observability.Logger
	metrics    observability.Metrics
}

// NewFetcher builds a Fetcher. Strategy order is significant: earlier
// strategies are cheaper.
func NewFetcher(logger observability.Logger, metrics observability.Metrics, strategies ...Strategy) *Fetcher {
	return &Fetcher{
		strategies: strategies,
		logger:     logger,
		metrics:    metrics,
	}
}

// Fetch downloads one link, returning the local path and the name of the
// strategy that succeeded. All strategy failures are joined into the
// returned error so the record of what was tried survives.
func (f *Fetcher) Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, string, error) {
	if len(f.strategies) == 0 {
		return "", "", fmt.Errorf("%w: %s: no strategies configured", ErrFetch, link.URL)
	}

	var failures []error
	for _, strategy := range f.strategies {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}

		op := "fetch_" + strategy.Name()
		start := time.Now()
		f.metrics.StartOperation(op)
		path, err := strategy.Fetch(ctx, link, creds, destDir)
		f.metrics.EndOperation(op)
		f.metrics.RecordDuration(op, time.Since(start).Seconds())
		if err == nil {
			f.metrics.RecordSuccess(op)
			f.logger.Info(ctx, "link fetched", observability.Fields{
				"url":      link.URL,
				"strategy": strategy.Name(),
				"path":     path,
			})
			return path, strategy.Name(), nil
		}

		f.metrics.RecordError(op, "fetch_failed")
		f.logger.Warn(ctx, "fetch strategy failed", observability.Fields{
			"url":      link.URL,
			"strategy": strategy.Name(),
			"error":    err.Error(),
		})
		failures = append(failures, fmt.Errorf("%s: %w", strategy.Name(), err))
	}

	return "", "", fmt.Errorf("%w: %s: %w", ErrFetch, link.URL, errors.Join(failures...))
}
