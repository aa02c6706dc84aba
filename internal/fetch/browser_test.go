package fetch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-rod/rod"
	"github.com/stretchr/testify/assert"
)

func TestIsDownloadAbort(t *testing.T) {
	abort := &rod.NavigationError{Reason: "net::ERR_ABORTED"}

	assert.True(t, isDownloadAbort(abort))
	assert.True(t, isDownloadAbort(fmt.Errorf("navigate: %w", abort)), "wrapped navigation errors must match")
	assert.False(t, isDownloadAbort(&rod.NavigationError{Reason: "net::ERR_NAME_NOT_RESOLVED"}))
	// an arbitrary error mentioning the reason text is not a navigation abort
	assert.False(t, isDownloadAbort(errors.New("net::ERR_ABORTED")))
	assert.False(t, isDownloadAbort(nil))
}
