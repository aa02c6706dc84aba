// Package types defines the remote case store contract shared by all storage
// providers.
package types

import "context"

// Folder identifies a remote case folder.
type Folder struct {
	// Path is the provider-native folder path, e.g. "/Cases/John_Doe_2026-08-30".
	Path string
}

// CaseStore archives fetched files under a per-case remote folder and mints a
// shareable link for it.
type CaseStore interface {
	// EnsureFolder creates the case folder if it does not exist. Calling it
	// for an existing folder is not an error.
	EnsureFolder(ctx context.Context, name string) (Folder, error)

	// Upload stores the local file under the folder, overwriting any remote
	// file of the same name. It returns the remote path written.
	Upload(ctx context.Context, folder Folder, localPath string) (string, error)

	// SharedLink returns a shareable URL for the folder. It is idempotent:
	// repeated calls for the same folder yield the same link.
	SharedLink(ctx context.Context, folder Folder) (string, error)
}
