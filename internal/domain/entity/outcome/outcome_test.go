package outcome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestClassifyFetches(t *testing.T) {
	ok := FetchResult{LocalPath: "/tmp/a", Strategy: "direct"}
	bad := FetchResult{Err: errBoom}

	assert.Equal(t, AllSucceeded, ClassifyFetches([]FetchResult{ok, ok}))
	assert.Equal(t, SomeFailed, ClassifyFetches([]FetchResult{ok, bad, ok}))
	assert.Equal(t, AllFailed, ClassifyFetches([]FetchResult{bad, bad}))
	assert.Equal(t, AllFailed, ClassifyFetches(nil))
}

func TestClassifyUploads(t *testing.T) {
	ok := UploadResult{LocalPath: "/tmp/a", RemotePath: "/Cases/a"}
	bad := UploadResult{LocalPath: "/tmp/b", Err: errBoom}

	assert.Equal(t, AllSucceeded, ClassifyUploads([]UploadResult{ok}))
	assert.Equal(t, SomeFailed, ClassifyUploads([]UploadResult{ok, bad}))
	assert.Equal(t, AllFailed, ClassifyUploads([]UploadResult{bad}))
}

func TestFetchSuccesses(t *testing.T) {
	results := []FetchResult{
		{LocalPath: "/tmp/a"},
		{Err: errBoom},
		{LocalPath: "/tmp/c"},
	}

	successes := FetchSuccesses(results)
	assert.Len(t, successes, 2)
	assert.Equal(t, "/tmp/a", successes[0].LocalPath)
	assert.Equal(t, "/tmp/c", successes[1].LocalPath)
}
