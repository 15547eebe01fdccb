package locsearch_test

import (
	"regexp"
	"testing"

	"github.com/fwojciec/locsearch"
	"github.com/stretchr/testify/assert"
)

func TestURLFilter_Match(t *testing.T) {
	t.Parallel()

	t.Run("nil filter matches everything", func(t *testing.T) {
		t.Parallel()

		var f *locsearch.URLFilter

		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("empty filter matches everything", func(t *testing.T) {
		t.Parallel()

		f := &locsearch.URLFilter{}

		assert.True(t, f.Match("https://example.com/anything"))
	})

	t.Run("include requires at least one match", func(t *testing.T) {
		t.Parallel()

		f := &locsearch.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/docs/`)},
		}

		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/blog/post"))
	})

	t.Run("exclude rejects matching URLs", func(t *testing.T) {
		t.Parallel()

		f := &locsearch.URLFilter{
			Exclude: []*regexp.Regexp{regexp.MustCompile(`\.pdf$`)},
		}

		assert.False(t, f.Match("https://example.com/manual.pdf"))
		assert.True(t, f.Match("https://example.com/manual.html"))
	})

	t.Run("exclude applies after include", func(t *testing.T) {
		t.Parallel()

		f := &locsearch.URLFilter{
			Include: []*regexp.Regexp{regexp.MustCompile(`/docs/`)},
			Exclude: []*regexp.Regexp{regexp.MustCompile(`/docs/archive/`)},
		}

		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/docs/archive/old"))
	})
}

func TestIndexParams_Validate(t *testing.T) {
	t.Parallel()

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, locsearch.DefaultIndexParams(768).Validate())
	})

	t.Run("dimension must be positive", func(t *testing.T) {
		t.Parallel()

		p := locsearch.IndexParams{Dim: 0, NList: 4, M: 2, NProbe: 2}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(p.Validate()))
	})

	t.Run("m must divide dimension", func(t *testing.T) {
		t.Parallel()

		p := locsearch.IndexParams{Dim: 10, NList: 4, M: 3, NProbe: 2}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(p.Validate()))
	})

	t.Run("nprobe bounded by nlist", func(t *testing.T) {
		t.Parallel()

		p := locsearch.IndexParams{Dim: 8, NList: 4, M: 2, NProbe: 5}

		assert.Equal(t, locsearch.EINVALID, locsearch.ErrorCode(p.Validate()))
	})
}
