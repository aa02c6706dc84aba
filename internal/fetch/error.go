package fetch

import "errors"

var (
	// ErrFetch wraps exhaustion of all strategies for one link.
	ErrFetch = errors.New("failed to fetch link")

	// ErrNotAFile marks responses that returned a page instead of a file,
	// typically a login wall or an interstitial. The browser strategy may
	// still succeed on these.
	ErrNotAFile = errors.New("response is not a downloadable file")

	// ErrFileTooLarge marks downloads over the configured size cap.
	ErrFileTooLarge = errors.New("file exceeds maximum size")
)
