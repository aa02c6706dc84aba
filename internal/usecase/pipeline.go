package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/outcome"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
	"github.com/ShadewG/auto-downloader/internal/observability"
	"github.com/ShadewG/auto-downloader/internal/storage/types"
)

// Pipeline processes one case end to end. Per-link failures degrade the
// case to a partial result; the case as a whole only fails when nothing was
// fetched or nothing was uploaded.
type Pipeline struct {
	source      RecordSource
	store       types.CaseStore
	fetcher     Fetcher
	namer       *service.FolderNamer
	downloadDir string
	concurrency int
	logger      observability.Logger
	metrics     observability.Metrics
	now         func() time.Time
}

// NewPipeline wires a Pipeline. concurrency bounds parallel link fetches
// within the case; 1 means sequential.
func NewPipeline(
	source RecordSource,
	store types.CaseStore,
	fetcher Fetcher,
	downloadDir string,
	concurrency int,
	logger observability.Logger,
	metrics observability.Metrics,
) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		source:      source,
		store:       store,
		fetcher:     fetcher,
		namer:       service.NewFolderNamer(),
		downloadDir: downloadDir,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
		now:         time.Now,
	}
}

// Process runs one case through the full lifecycle. On return the record is
// in Uploaded, back in Ready, or flagged for reconciliation via
// ErrReconciliationRequired.
func (p *Pipeline) Process(ctx context.Context, rec *caserecord.CaseRecord) error {
	start := time.Now()
	p.metrics.StartOperation("process_case")
	defer p.metrics.EndOperation("process_case")

	// claim the case first so a second runner does not pick it up
	if err := p.advance(ctx, rec, caserecord.StatusDownloading); err != nil {
		p.metrics.RecordError("process_case", "claim_failed")
		return fmt.Errorf("claim case %s: %w", rec.PageID, err)
	}

	caseDir := filepath.Join(p.downloadDir, rec.PageID)
	fetches := p.fetchAll(ctx, rec, caseDir)

	if outcome.ClassifyFetches(fetches) == outcome.AllFailed {
		p.rollback(ctx, rec)
		p.metrics.RecordError("process_case", "all_links_failed")
		return fmt.Errorf("case %s: %w", rec.PageID, outcome.ErrAllLinksFailed)
	}

	// files exist locally now; losing the remote record past this point
	// means the record no longer reflects reality
	if err := p.advance(ctx, rec, caserecord.StatusUploading); err != nil {
		p.metrics.RecordError("process_case", "reconciliation_required")
		return fmt.Errorf("case %s: advance to uploading: %w: %w", rec.PageID, ErrReconciliationRequired, err)
	}

	uploads, folder, err := p.uploadAll(ctx, rec, fetches)
	if err != nil || outcome.ClassifyUploads(uploads) == outcome.AllFailed {
		// nothing made it to the remote store: release the case and keep
		// the fetched files for the next attempt's operator to inspect
		p.rollback(ctx, rec)
		p.metrics.RecordError("process_case", "all_uploads_failed")
		if err == nil {
			err = outcome.ErrAllUploadsFailed
		}
		return fmt.Errorf("case %s: %w", rec.PageID, err)
	}

	sharedLink, err := p.store.SharedLink(ctx, folder)
	if err != nil {
		p.metrics.RecordError("process_case", "reconciliation_required")
		return fmt.Errorf("case %s: %w: %w", rec.PageID, ErrReconciliationRequired, err)
	}

	if err := p.source.SetSharedLink(ctx, rec.PageID, sharedLink); err != nil {
		p.metrics.RecordError("process_case", "reconciliation_required")
		return fmt.Errorf("case %s: %w: %w", rec.PageID, ErrReconciliationRequired, err)
	}
	rec.SharedLink = sharedLink

	if err := p.advance(ctx, rec, caserecord.StatusUploaded); err != nil {
		p.metrics.RecordError("process_case", "reconciliation_required")
		return fmt.Errorf("case %s: finalize: %w: %w", rec.PageID, ErrReconciliationRequired, err)
	}

	p.cleanup(ctx, caseDir, uploads)

	p.metrics.RecordSuccess("process_case")
	p.metrics.RecordDuration("process_case", time.Since(start).Seconds())
	p.logger.Info(ctx, "case processed", observability.Fields{
		"page_id":     rec.PageID,
		"links":       len(rec.Links.Links),
		"fetched":     len(outcome.FetchSuccesses(fetches)),
		"uploaded":    countUploaded(uploads),
		"shared_link": sharedLink,
	})
	return nil
}

// fetchAll downloads every link of the case into caseDir, bounded by the
// configured concurrency. Malformed link tokens become failures directly;
// they never reach the network.
func (p *Pipeline) fetchAll(ctx context.Context, rec *caserecord.CaseRecord, caseDir string) []outcome.FetchResult {
	links := rec.Links.Links
	results := make([]outcome.FetchResult, len(links), len(links)+len(rec.Links.Malformed))
	creds := service.ParseCredentials(rec.Credentials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, link := range links {
		g.Go(func() error {
			path, strategy, err := p.fetcher.Fetch(gctx, link, creds, caseDir)
			results[i] = outcome.FetchResult{Link: link, LocalPath: path, Strategy: strategy, Err: err}
			return nil
		})
	}
	g.Wait()

	for _, malformed := range rec.Links.Malformed {
		results = append(results, outcome.FetchResult{
			Link: malformed,
			Err:  fmt.Errorf("malformed link %q", malformed.URL),
		})
	}
	return results
}

// uploadAll puts every fetched file into one case folder. Upload failures
// are collected per file, not short-circuited.
func (p *Pipeline) uploadAll(ctx context.Context, rec *caserecord.CaseRecord, fetches []outcome.FetchResult) ([]outcome.UploadResult, types.Folder, error) {
	folderName := p.namer.Name(rec.SuspectName, p.now())
	folder, err := p.store.EnsureFolder(ctx, folderName)
	if err != nil {
		return nil, types.Folder{}, err
	}

	var uploads []outcome.UploadResult
	for _, fetched := range outcome.FetchSuccesses(fetches) {
		remotePath, err := p.store.Upload(ctx, folder, fetched.LocalPath)
		if err != nil {
			p.logger.Error(ctx, "upload failed", err, observability.Fields{
				"page_id":    rec.PageID,
				"local_path": fetched.LocalPath,
			})
		}
		uploads = append(uploads, outcome.UploadResult{
			LocalPath:  fetched.LocalPath,
			RemotePath: remotePath,
			Err:        err,
		})
	}
	return uploads, folder, nil
}

// advance moves the record one lifecycle step locally, then mirrors it to
// the case database. A local transition failure is a bug and never reaches
// the remote.
func (p *Pipeline) advance(ctx context.Context, rec *caserecord.CaseRecord, to caserecord.Status) error {
	if err := rec.Transition(to); err != nil {
		return err
	}
	if err := p.source.SetStatus(ctx, rec.PageID, to); err != nil {
		return err
	}
	p.logger.Debug(ctx, "status advanced", observability.Fields{
		"page_id": rec.PageID,
		"status":  string(to),
	})
	return nil
}

// rollback releases a claimed case back to Ready. A failed remote write is
// only logged: the local record is already Ready, and the stuck remote
// status is visible to operators.
func (p *Pipeline) rollback(ctx context.Context, rec *caserecord.CaseRecord) {
	if err := rec.Transition(caserecord.StatusReady); err != nil {
		p.logger.Error(ctx, "rollback transition failed", err, observability.Fields{"page_id": rec.PageID})
		return
	}
	if err := p.source.SetStatus(ctx, rec.PageID, caserecord.StatusReady); err != nil {
		p.logger.Error(ctx, "failed to release case back to ready", err, observability.Fields{"page_id": rec.PageID})
	}
}

// cleanup deletes exactly the local files whose upload succeeded. Files with
// failed uploads stay on disk; the case directory goes away only once empty.
func (p *Pipeline) cleanup(ctx context.Context, caseDir string, uploads []outcome.UploadResult) {
	for _, up := range uploads {
		if !up.Succeeded() {
			continue
		}
		if err := os.Remove(up.LocalPath); err != nil && !os.IsNotExist(err) {
			p.logger.Warn(ctx, "failed to remove local file", observability.Fields{
				"path":  up.LocalPath,
				"error": err.Error(),
			})
		}
	}
	// fails while the directory still has files in it, which is intended
	_ = os.Remove(caseDir)
}

func countUploaded(uploads []outcome.UploadResult) int {
	n := 0
	for _, up := range uploads {
		if up.Succeeded() {
			n++
		}
	}
	return n
}
