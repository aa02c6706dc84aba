package notion

import "errors"

var (
	// ErrQuery wraps failures to list ready cases from the database.
	ErrQuery = errors.New("failed to query case database")

	// ErrRecordUpdate wraps failures to write a mutation back to a case. The
	// caller decides whether the local pipeline state is still trustworthy.
	ErrRecordUpdate = errors.New("failed to update case record")
)
