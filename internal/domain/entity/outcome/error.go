package outcome

import "errors"

var (
	// ErrAllLinksFailed means no link in the case produced a local file.
	ErrAllLinksFailed = errors.New("all links failed to download")
	// ErrAllUploadsFailed means no fetched file reached the remote store.
	ErrAllUploadsFailed = errors.New("all uploads failed")
)
