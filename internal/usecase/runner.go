package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/observability"
)

// Runner polls the case database and feeds ready cases to the pipeline. A
// failing or panicking case never takes down the batch: each case is
// isolated and the rest proceed.
type Runner struct {
	source    RecordSource
	pipeline  *Pipeline
	caseLimit int
	logger    observability.Logger
	metrics   observability.Metrics
}

// NewRunner wires a Runner. caseLimit caps cases per batch; 0 means no cap.
func NewRunner(source RecordSource, pipeline *Pipeline, caseLimit int, logger observability.Logger, metrics observability.Metrics) *Runner {
	return &Runner{
		source:    source,
		pipeline:  pipeline,
		caseLimit: caseLimit,
		logger:    logger,
		metrics:   metrics,
	}
}

// RunBatch fetches one batch of ready cases and processes them in order. It
// returns how many cases completed successfully and the query error, if any.
func (r *Runner) RunBatch(ctx context.Context) (int, error) {
	records, err := r.source.FindReady(ctx, r.caseLimit)
	if err != nil {
		r.metrics.RecordError("run_batch", "query_failed")
		return 0, fmt.Errorf("find ready cases: %w", err)
	}
	if len(records) == 0 {
		r.logger.Debug(ctx, "no cases ready", nil)
		return 0, nil
	}

	r.logger.Info(ctx, "batch started", observability.Fields{"cases": len(records)})

	succeeded := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		if r.processCase(ctx, rec) {
			succeeded++
		}
	}

	r.logger.Info(ctx, "batch finished", observability.Fields{
		"cases":     len(records),
		"succeeded": succeeded,
	})
	return succeeded, nil
}

// Run polls forever at the given interval until the context is canceled. The
// first batch runs immediately.
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.RunBatch(ctx); err != nil {
			r.logger.Error(ctx, "batch failed", err, nil)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// processCase runs one case with panic isolation.
func (r *Runner) processCase(ctx context.Context, rec *caserecord.CaseRecord) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			r.metrics.RecordError("process_case", "panic")
			r.logger.Error(ctx, "case processing panicked", fmt.Errorf("panic: %v", p), observability.Fields{
				"page_id": rec.PageID,
			})
		}
	}()

	if err := r.pipeline.Process(ctx, rec); err != nil {
		r.logger.Error(ctx, "case failed", err, observability.Fields{"page_id": rec.PageID})
		return false
	}
	return true
}
