package linkset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FreeTextSplitting(t *testing.T) {
	t.Run("splits on whitespace and newlines, no empty entries", func(t *testing.T) {
		set := Build(nil, "http://a/x.zip\nhttp://b/y.zip  ")

		require.Len(t, set.Links, 2)
		assert.Empty(t, set.Malformed)
		assert.Equal(t, "http://a/x.zip", set.Links[0].URL)
		assert.Equal(t, "http://b/y.zip", set.Links[1].URL)
		assert.Equal(t, "multi", set.Links[0].Slot)
	})

	t.Run("malformed token is kept as a failure, not dropped", func(t *testing.T) {
		set := Build(nil, "not a url")

		// "not a url" splits into three tokens, none of them valid URLs.
		assert.Empty(t, set.Links)
		require.Len(t, set.Malformed, 3)
		assert.Equal(t, "not", set.Malformed[0].URL)
	})

	t.Run("rejects non-http schemes and missing hosts", func(t *testing.T) {
		set := Build(nil, "ftp://a/x.zip https:///no-host http://ok/f.pdf")

		require.Len(t, set.Links, 1)
		assert.Equal(t, "http://ok/f.pdf", set.Links[0].URL)
		assert.Len(t, set.Malformed, 2)
	})
}

func TestBuild_SlotsAndOrder(t *testing.T) {
	slots := []Link{
		{URL: "http://a/1.zip", Slot: "link_1"},
		{URL: "", Slot: "link_2"},
		{URL: "http://a/3.zip", Slot: "link_3"},
	}

	set := Build(slots, "http://a/4.zip http://a/1.zip")

	// duplicate of link_1 in the free text is dropped, order preserved
	require.Len(t, set.Links, 3)
	assert.Equal(t, "http://a/1.zip", set.Links[0].URL)
	assert.Equal(t, "link_1", set.Links[0].Slot)
	assert.Equal(t, "http://a/3.zip", set.Links[1].URL)
	assert.Equal(t, "http://a/4.zip", set.Links[2].URL)
}

func TestSet_Empty(t *testing.T) {
	assert.True(t, Build(nil, "").Empty())
	assert.False(t, Build(nil, "http://a/x").Empty())
	// a set of only malformed tokens is not empty: it still yields failures
	assert.False(t, Build(nil, "garbage").Empty())
}
