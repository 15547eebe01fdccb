package locsearch

import (
	"fmt"
	"strings"
)

// FormatSummaries formats per-chunk summaries for the final synthesis
// prompt. Summaries are numbered and separated by blank lines.
func FormatSummaries(summaries []string) string {
	if len(summaries) == 0 {
		return ""
	}

	parts := make([]string, 0, len(summaries))
	for i, s := range summaries {
		parts = append(parts, fmt.Sprintf("## Summary %d\n%s", i+1, s))
	}

	return strings.Join(parts, "\n\n")
}

// FormatResults formats search results for display, one "rank. url (score)"
// line per result.
func FormatResults(results []SearchResult) string {
	if len(results) == 0 {
		return "no results"
	}

	var sb strings.Builder
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s (%.4f)\n", i+1, r.URL, r.Score)
	}
	return strings.TrimRight(sb.String(), "\n")
}
