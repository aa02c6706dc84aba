// Package usecase orchestrates the case pipeline: claim a ready case, fetch
// its links, archive the files, write the shared link back, and advance the
// record through its status lifecycle.
package usecase

import (
	"context"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
)

// RecordSource is the case database: it lists ready cases and accepts
// status and shared-link writes.
type RecordSource interface {
	FindReady(ctx context.Context, limit int) ([]*caserecord.CaseRecord, error)
	SetStatus(ctx context.Context, pageID string, status caserecord.Status) error
	SetSharedLink(ctx context.Context, pageID, link string) error
}

// Fetcher turns one link into a local file, reporting which strategy won.
type Fetcher interface {
	Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (path string, strategy string, err error)
}
