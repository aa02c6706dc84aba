// Package dropboxstore archives case files in Dropbox. It supports team
// accounts (acting as a member inside a team-folder namespace), chunked
// upload sessions for large files, and idempotent shared links.
package dropboxstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"

	"github.com/ShadewG/auto-downloader/internal/config"
	"github.com/ShadewG/auto-downloader/internal/observability"
	"github.com/ShadewG/auto-downloader/internal/storage/types"
)

// Store implements types.CaseStore on Dropbox.
type Store struct {
	files          files.Client
	sharing        sharing.Client
	rootPath       string
	chunkThreshold int64
	chunkSize      int64
	logger         observability.Logger
	metrics        observability.Metrics
}

// New builds a Store from the Dropbox configuration.
func New(cfg *config.DropboxConfig, logger observability.Logger, metrics observability.Metrics) *Store {
	dbxCfg := dropbox.Config{
		Token:    cfg.AccessToken,
		LogLevel: dropbox.LogOff,
	}
	if cfg.MemberID != "" {
		dbxCfg.AsMemberID = cfg.MemberID
	}
	if cfg.NamespaceID != "" {
		pathRoot := fmt.Sprintf(`{".tag": "namespace_id", "namespace_id": %q}`, cfg.NamespaceID)
		dbxCfg.HeaderGenerator = func(hostType string, namespace string, route string) map[string]string {
			return map[string]string{"Dropbox-API-Path-Root": pathRoot}
		}
	}

	return &Store{
		files:          files.New(dbxCfg),
		sharing:        sharing.New(dbxCfg),
		rootPath:       normalizeRoot(cfg.RootPath),
		chunkThreshold: cfg.ChunkThreshold,
		chunkSize:      cfg.ChunkSize,
		logger:         logger,
		metrics:        metrics,
	}
}

func normalizeRoot(root string) string {
	root = strings.TrimRight(strings.TrimSpace(root), "/")
	if root == "" {
		return "/Cases"
	}
	if !strings.HasPrefix(root, "/") {
		root = "/" + root
	}
	return root
}

// EnsureFolder creates /{root}/{name} if absent. An existing folder is reused.
func (s *Store) EnsureFolder(ctx context.Context, name string) (types.Folder, error) {
	path := s.rootPath + "/" + name

	meta, err := s.files.GetMetadata(files.NewGetMetadataArg(path))
	if err == nil {
		if _, isFolder := meta.(*files.FolderMetadata); isFolder {
			return types.Folder{Path: path}, nil
		}
		return types.Folder{}, fmt.Errorf("%w: %s exists but is not a folder", types.ErrFolder, path)
	}

	if _, err := s.files.CreateFolderV2(files.NewCreateFolderArg(path)); err != nil {
		// a concurrent run may have created it between the two calls
		if !strings.Contains(strings.ToLower(err.Error()), "conflict") {
			return types.Folder{}, fmt.Errorf("%w: %s: %v", types.ErrFolder, path, err)
		}
	}

	s.logger.Info(ctx, "case folder ready", observability.Fields{"path": path})
	return types.Folder{Path: path}, nil
}

// Upload stores the local file under the folder, overwriting any previous
// file of the same name. Files above the chunk threshold go through an
// upload session.
func (s *Store) Upload(ctx context.Context, folder types.Folder, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", types.ErrUpload, localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", types.ErrUpload, localPath, err)
	}

	remotePath := folder.Path + "/" + filepath.Base(localPath)
	start := time.Now()
	s.metrics.StartOperation("storage_upload")
	defer s.metrics.EndOperation("storage_upload")

	if info.Size() > s.chunkThreshold {
		err = s.uploadSession(f, info.Size(), remotePath)
	} else {
		err = s.uploadSimple(f, remotePath)
	}
	if err != nil {
		s.metrics.RecordError("storage_upload", "upload_failed")
		return "", fmt.Errorf("%w: %s: %v", types.ErrUpload, remotePath, err)
	}

	s.metrics.RecordSuccess("storage_upload")
	s.metrics.RecordDuration("storage_upload", time.Since(start).Seconds())
	s.metrics.RecordFileSize(strings.TrimPrefix(filepath.Ext(localPath), "."), info.Size())
	s.logger.Info(ctx, "file uploaded", observability.Fields{
		"remote_path": remotePath,
		"size_bytes":  info.Size(),
	})
	return remotePath, nil
}

func (s *Store) uploadSimple(content io.Reader, remotePath string) error {
	arg := files.NewUploadArg(remotePath)
	arg.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	_, err := s.files.Upload(arg, content)
	return err
}

// uploadSession streams the file in fixed-size chunks through a Dropbox
// upload session: start, zero or more appends, then a finish carrying the
// last chunk.
func (s *Store) uploadSession(content io.Reader, size int64, remotePath string) error {
	startRes, err := s.files.UploadSessionStart(
		files.NewUploadSessionStartArg(),
		io.LimitReader(content, s.chunkSize),
	)
	if err != nil {
		return fmt.Errorf("session start: %w", err)
	}

	offset := min64(s.chunkSize, size)
	for size-offset > s.chunkSize {
		cursor := files.NewUploadSessionCursor(startRes.SessionId, uint64(offset))
		err = s.files.UploadSessionAppendV2(
			files.NewUploadSessionAppendArg(cursor),
			io.LimitReader(content, s.chunkSize),
		)
		if err != nil {
			return fmt.Errorf("session append at %d: %w", offset, err)
		}
		offset += s.chunkSize
	}

	cursor := files.NewUploadSessionCursor(startRes.SessionId, uint64(offset))
	commit := files.NewCommitInfo(remotePath)
	commit.Mode = &files.WriteMode{Tagged: dropbox.Tagged{Tag: files.WriteModeOverwrite}}
	_, err = s.files.UploadSessionFinish(files.NewUploadSessionFinishArg(cursor, commit), content)
	if err != nil {
		return fmt.Errorf("session finish: %w", err)
	}
	return nil
}

// SharedLink reuses an existing shared link for the folder when one exists,
// creating it only on first request.
func (s *Store) SharedLink(ctx context.Context, folder types.Folder) (string, error) {
	listArg := sharing.NewListSharedLinksArg()
	listArg.Path = folder.Path
	listArg.DirectOnly = true

	listRes, err := s.sharing.ListSharedLinks(listArg)
	if err == nil {
		for _, link := range listRes.Links {
			if url := linkURL(link); url != "" {
				return url, nil
			}
		}
	}

	created, err := s.sharing.CreateSharedLinkWithSettings(
		sharing.NewCreateSharedLinkWithSettingsArg(folder.Path),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrSharedLink, folder.Path, err)
	}
	url := linkURL(created)
	if url == "" {
		return "", fmt.Errorf("%w: %s: link metadata has no url", types.ErrSharedLink, folder.Path)
	}

	s.logger.Info(ctx, "shared link created", observability.Fields{"path": folder.Path})
	return url, nil
}

func linkURL(meta sharing.IsSharedLinkMetadata) string {
	switch m := meta.(type) {
	case *sharing.FolderLinkMetadata:
		return m.Url
	case *sharing.FileLinkMetadata:
		return m.Url
	case *sharing.SharedLinkMetadata:
		return m.Url
	default:
		return ""
	}
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
