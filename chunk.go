package locsearch

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MeasureFunc returns the size of text in whatever unit a chunk ceiling is
// expressed in (runes, tokens).
type MeasureFunc func(text string) int

// RuneMeasure measures text in runes. It is the fallback when no token
// counter is available.
func RuneMeasure(text string) int {
	return utf8.RuneCountInString(text)
}

var sentenceRe = regexp.MustCompile(`(?s).*?(?:[.!?]['")\]]?(?:\s|$)|\n)`)

// SplitChunks segments text into chunks, each measuring at most ceiling.
// Chunks break at paragraph boundaries; paragraphs larger than the ceiling
// break at sentence boundaries, and only a single sentence larger than the
// ceiling is ever split mid-sentence.
func SplitChunks(text string, ceiling int, measure MeasureFunc) []string {
	if measure == nil {
		measure = RuneMeasure
	}
	if ceiling <= 0 {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")

	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if measure(para) <= ceiling {
			units = append(units, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if measure(sent) <= ceiling {
				units = append(units, sent)
				continue
			}
			units = append(units, hardSplit(sent, ceiling, measure)...)
		}
	}

	// Greedily pack units into chunks under the ceiling.
	var chunks []string
	var cur strings.Builder
	for _, unit := range units {
		if cur.Len() == 0 {
			cur.WriteString(unit)
			continue
		}
		if measure(cur.String()+"\n\n"+unit) <= ceiling {
			cur.WriteString("\n\n")
			cur.WriteString(unit)
			continue
		}
		chunks = append(chunks, cur.String())
		cur.Reset()
		cur.WriteString(unit)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// splitSentences breaks a paragraph into sentence-like pieces.
func splitSentences(para string) []string {
	matches := sentenceRe.FindAllString(para, -1)
	var rest string
	if n := len(strings.Join(matches, "")); n < len(para) {
		rest = para[n:]
	}

	var sentences []string
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if m != "" {
			sentences = append(sentences, m)
		}
	}
	if rest = strings.TrimSpace(rest); rest != "" {
		sentences = append(sentences, rest)
	}
	if len(sentences) == 0 {
		return []string{para}
	}
	return sentences
}

// hardSplit slices text into the largest rune-boundary pieces that fit the
// ceiling. Used only when a single sentence exceeds the ceiling.
func hardSplit(text string, ceiling int, measure MeasureFunc) []string {
	var pieces []string
	runes := []rune(text)
	for len(runes) > 0 {
		// Binary-search the longest prefix under the ceiling.
		lo, hi := 1, len(runes)
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if measure(string(runes[:mid])) <= ceiling {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		pieces = append(pieces, string(runes[:lo]))
		runes = runes[lo:]
	}
	return pieces
}
