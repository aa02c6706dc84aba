// Package outcome carries per-link and per-file results through the pipeline
// and classifies them in one place, instead of scattering ad hoc counting.
package outcome

import "github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"

// FetchResult is the outcome of one link's fetch attempt.
type FetchResult struct {
	Link linkset.Link
	// LocalPath is set on success.
	LocalPath string
	// Strategy names the strategy that produced the file ("direct",
	// "browser"), empty on failure.
	Strategy string
	Err      error
}

// Succeeded reports whether the fetch produced a local file.
func (r FetchResult) Succeeded() bool {
	return r.Err == nil
}

// UploadResult is the outcome of one fetched file's upload attempt.
type UploadResult struct {
	LocalPath  string
	RemotePath string
	Err        error
}

// Succeeded reports whether the file has a verified remote copy.
func (r UploadResult) Succeeded() bool {
	return r.Err == nil
}

// Classification summarizes a batch of per-item outcomes.
type Classification int

const (
	AllSucceeded Classification = iota
	SomeFailed
	AllFailed
)

// ClassifyFetches classifies a case's fetch results. An empty slice counts as
// AllFailed: there is nothing to carry forward.
func ClassifyFetches(results []FetchResult) Classification {
	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	return classify(len(results), succeeded)
}

// ClassifyUploads classifies a case's upload results.
func ClassifyUploads(results []UploadResult) Classification {
	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	return classify(len(results), succeeded)
}

func classify(total, succeeded int) Classification {
	switch {
	case succeeded == 0:
		return AllFailed
	case succeeded < total:
		return SomeFailed
	default:
		return AllSucceeded
	}
}

// FetchSuccesses filters the results that produced a local file, order
// preserved.
func FetchSuccesses(results []FetchResult) []FetchResult {
	var out []FetchResult
	for _, r := range results {
		if r.Succeeded() {
			out = append(out, r)
		}
	}
	return out
}
