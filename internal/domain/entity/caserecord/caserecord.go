// Package caserecord models one row of the case database: a case needing
// file retrieval and archival, advancing through a closed status lifecycle.
package caserecord

import (
	"fmt"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
)

// CaseRecord is one unit of work. Records are created externally in state
// Ready and mutated exclusively by the pipeline; they are never deleted here.
type CaseRecord struct {
	// PageID identifies the record in the case database.
	PageID string
	// SuspectName is free text used for remote folder naming.
	SuspectName string
	// Links is the normalized download link set extracted from the record's
	// link slots.
	Links linkset.Set
	// Credentials is a raw "username:password" string, or empty.
	Credentials string
	// SharedLink is the resulting shared folder URL, written back on success.
	SharedLink string
	Status     Status
}

// Transition moves the record along one edge of the status machine. An edge
// outside the transition table is a programming error, surfaced as
// ErrInvalidTransition rather than silently corrupting state.
func (r *CaseRecord) Transition(to Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	return nil
}
