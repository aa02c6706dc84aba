package caserecord

// Status is the download lifecycle state of a case, stored in the case
// database as a select field. Values must match the select options exactly.
type Status string

const (
	StatusReady       Status = "Ready for Download"
	StatusDownloading Status = "Downloading"
	StatusUploading   Status = "Uploading"
	StatusUploaded    Status = "Uploaded"
)

// transitions is the closed set of valid edges: the forward path plus the
// single rollback edge back to Ready from either transient state.
var transitions = map[Status][]Status{
	StatusReady:       {StatusDownloading},
	StatusDownloading: {StatusUploading, StatusReady},
	StatusUploading:   {StatusUploaded, StatusReady},
	StatusUploaded:    {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether the edge s -> to is in the transition table.
func (s Status) CanTransition(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transient reports whether s is an in-progress marker that should never
// survive a completed pipeline run.
func (s Status) Transient() bool {
	return s == StatusDownloading || s == StatusUploading
}
