// Package report synthesizes multi-document reports from crawled pages
// through staged summarization.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/locsearch"
)

// DefaultChunkTokens is the per-chunk token ceiling for staged
// summarization.
const DefaultChunkTokens = 3000

const chunkPrompt = `Summarize the following excerpt of web content. Keep every concrete fact, figure, and name; drop navigation text and boilerplate.

%s`

const synthesisPrompt = `You are composing a report from the numbered summaries below. Merge them into a single coherent report: organize by topic, reconcile overlaps, and keep all concrete facts.

%s`

// Synthesizer builds reports: it gathers the full text of each source
// page, splits the corpus into token-bounded chunks, drafts one summary
// per chunk, and then drafts the final report over the summaries.
// Finished reports and their intermediate summaries are cached by URL
// set; an identical request in any order is served from the cache
// without drafting.
type Synthesizer struct {
	Records locsearch.RecordService
	Reports locsearch.ReportService
	Pages   locsearch.PageFetcher
	Drafter locsearch.Drafter
	Tokens  locsearch.TokenCounter
	Logger  *slog.Logger

	// ChunkTokens overrides the per-chunk ceiling. Zero means
	// DefaultChunkTokens.
	ChunkTokens int
}

// Synthesize produces a report over the URL set, serving from the cache
// when the same set was synthesized before. A page whose text cannot be
// gathered is dropped from the corpus rather than failing the report;
// the report fails only when no page yields text.
func (s *Synthesizer) Synthesize(ctx context.Context, urls []string) (*locsearch.Report, error) {
	if len(urls) == 0 {
		return nil, locsearch.Errorf(locsearch.EINVALID, "report requires at least one URL")
	}

	key := locsearch.ReportKey(urls)
	if cached, err := s.Reports.FindReportByKey(ctx, key); err == nil {
		s.logger().Info("report cache hit", "key", key)
		return cached, nil
	} else if locsearch.ErrorCode(err) != locsearch.ENOTFOUND {
		return nil, err
	}

	corpus, err := s.gather(ctx, urls)
	if err != nil {
		return nil, err
	}
	if corpus == "" {
		return nil, locsearch.Errorf(locsearch.ENOTFOUND, "no page text available for report")
	}

	chunks := locsearch.SplitChunks(corpus, s.chunkTokens(), s.measure(ctx))

	summaries := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		summary, err := s.draft(ctx, chunkPrompt, chunk)
		if err != nil {
			return nil, locsearch.Errorf(locsearch.EUNAVAILABLE, "drafting summary %d/%d: %v", i+1, len(chunks), err)
		}
		summaries = append(summaries, summary)
	}

	text, err := s.draft(ctx, synthesisPrompt, locsearch.FormatSummaries(summaries))
	if err != nil {
		return nil, locsearch.Errorf(locsearch.EUNAVAILABLE, "drafting final report: %v", err)
	}

	rep := &locsearch.Report{
		Key:       key,
		URLs:      urls,
		Text:      text,
		Summaries: summaries,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Reports.SaveReport(ctx, rep); err != nil {
		return nil, err
	}

	s.logger().Info("report synthesized",
		"key", key,
		"urls", len(urls),
		"chunks", len(chunks),
	)
	return rep, nil
}

// gather concatenates the full text of every URL, reusing text already
// on the record and persisting freshly fetched text back to it.
func (s *Synthesizer) gather(ctx context.Context, urls []string) (string, error) {
	var parts []string
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := s.fullText(ctx, u)
		if err != nil {
			s.logger().Warn("skipping page in report", "url", u, "err", err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// fullText returns a page's text, preferring the record's stored copy.
func (s *Synthesizer) fullText(ctx context.Context, url string) (string, error) {
	rec, err := s.Records.FindRecordByURL(ctx, url)
	if err != nil && locsearch.ErrorCode(err) != locsearch.ENOTFOUND {
		return "", err
	}
	if rec != nil && rec.FullText != nil && *rec.FullText != "" {
		return *rec.FullText, nil
	}

	text, err := s.Pages.FetchFullText(ctx, url)
	if err != nil {
		return "", err
	}
	if rec != nil && text != "" {
		if err := s.Records.SaveFullText(ctx, url, text); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (s *Synthesizer) draft(ctx context.Context, template, content string) (string, error) {
	out, err := s.Drafter.Draft(ctx, fmt.Sprintf(template, content))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// measure returns the chunk measure: the token counter when configured,
// runes otherwise. A counter failure mid-corpus falls back to runes for
// the failing text rather than aborting the report.
func (s *Synthesizer) measure(ctx context.Context) locsearch.MeasureFunc {
	if s.Tokens == nil {
		return locsearch.RuneMeasure
	}
	return func(text string) int {
		n, err := s.Tokens.CountTokens(ctx, text)
		if err != nil {
			return locsearch.RuneMeasure(text)
		}
		return n
	}
}

func (s *Synthesizer) chunkTokens() int {
	if s.ChunkTokens > 0 {
		return s.ChunkTokens
	}
	return DefaultChunkTokens
}

func (s *Synthesizer) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
