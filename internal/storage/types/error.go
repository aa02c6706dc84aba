package types

import "errors"

var (
	// ErrFolder wraps failures to create or resolve a case folder.
	ErrFolder = errors.New("failed to ensure case folder")

	// ErrUpload wraps failures to store a file remotely.
	ErrUpload = errors.New("failed to upload file")

	// ErrSharedLink wraps failures to mint a shareable folder link.
	ErrSharedLink = errors.New("failed to create shared link")
)
