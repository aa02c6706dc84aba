// Package storage selects the remote case store implementation from
// configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/observability"
	"github.com/ShadewG/auto-downloader/internal/storage/dropboxstore"
	"github.com/ShadewG/auto-downloader/internal/storage/s3store"
	"github.com/ShadewG/auto-downloader/internal/storage/types"
)

// New builds the configured CaseStore.
func New(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (types.CaseStore, error) {
	switch cfg.Provider {
	case "dropbox":
		return dropboxstore.New(&cfg.Dropbox, logger, metrics), nil
	case "s3":
		return s3store.New(ctx, cfg, logger, metrics)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
