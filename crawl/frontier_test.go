package crawl_test

import (
	"testing"

	"github.com/fwojciec/locsearch/crawl"
	"github.com/stretchr/testify/assert"
)

func TestFrontier(t *testing.T) {
	t.Parallel()

	t.Run("pops in discovery order", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.True(t, f.Push("https://example.com/a"))
		assert.True(t, f.Push("https://example.com/b"))
		assert.True(t, f.Push("https://example.com/c"))

		url, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/a", url)

		url, ok = f.Pop()
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/b", url)

		url, ok = f.Pop()
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/c", url)

		_, ok = f.Pop()
		assert.False(t, ok)
	})

	t.Run("deduplicates pushed URLs", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.True(t, f.Push("https://example.com/a"))
		assert.False(t, f.Push("https://example.com/a"))
		assert.Equal(t, 1, f.Len())
	})

	t.Run("treats URLs differing only by fragment as duplicates", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.True(t, f.Push("https://example.com/page#intro"))
		assert.False(t, f.Push("https://example.com/page#usage"))
		assert.False(t, f.Push("https://example.com/page"))

		url, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, "https://example.com/page", url)
	})

	t.Run("seen covers queued and popped URLs", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		f.Push("https://example.com/a")
		assert.True(t, f.Seen("https://example.com/a"))

		f.Pop()
		assert.True(t, f.Seen("https://example.com/a"))
		assert.False(t, f.Seen("https://example.com/never"))
	})

	t.Run("len tracks the remaining queue", func(t *testing.T) {
		t.Parallel()

		f := crawl.NewFrontier(100, 0.01)
		assert.Zero(t, f.Len())

		f.Push("https://example.com/a")
		f.Push("https://example.com/b")
		assert.Equal(t, 2, f.Len())

		f.Pop()
		assert.Equal(t, 1, f.Len())
	})
}
