package goquery_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/locsearch/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnippetExtractor_ExtractSnippet(t *testing.T) {
	t.Parallel()

	t.Run("title and meta description", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<title>Sourdough Basics</title>
			<meta name="description" content="A primer on sourdough starters.">
		</head><body><p>ignored</p></body></html>`

		snippet, err := goquery.NewSnippetExtractor().ExtractSnippet(html)
		require.NoError(t, err)
		assert.Equal(t, "Sourdough Basics", snippet.Title)
		assert.Equal(t, "A primer on sourdough starters.", snippet.Description)
	})

	t.Run("open graph fallbacks", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
			<meta property="og:title" content="OG Title">
			<meta property="og:description" content="OG description.">
		</head><body></body></html>`

		snippet, err := goquery.NewSnippetExtractor().ExtractSnippet(html)
		require.NoError(t, err)
		assert.Equal(t, "OG Title", snippet.Title)
		assert.Equal(t, "OG description.", snippet.Description)
	})

	t.Run("body text fallback is truncated", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("word ", 100)
		html := `<html><head><title>T</title></head><body><p>` + long + `</p></body></html>`

		snippet, err := goquery.NewSnippetExtractor().ExtractSnippet(html)
		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(snippet.Description)), 200)
		assert.True(t, strings.HasPrefix(snippet.Description, "word word"))
	})

	t.Run("script and style are not visible text", func(t *testing.T) {
		t.Parallel()

		html := `<html><body>
			<script>var secret = 1;</script>
			<style>.x { color: red }</style>
			<p>Visible content.</p>
		</body></html>`

		snippet, err := goquery.NewSnippetExtractor().ExtractSnippet(html)
		require.NoError(t, err)
		assert.Equal(t, "Visible content.", snippet.Description)
		assert.NotContains(t, snippet.Description, "secret")
	})

	t.Run("empty page yields empty snippet", func(t *testing.T) {
		t.Parallel()

		snippet, err := goquery.NewSnippetExtractor().ExtractSnippet("<html><body></body></html>")
		require.NoError(t, err)
		assert.True(t, snippet.Empty())
	})
}
