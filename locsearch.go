// Package locsearch provides a local semantic search engine over a
// self-managed web crawl. It discovers URLs for configured domains under
// robots politeness rules, scrapes lightweight content through a resumable
// partitioned worker pool, embeds the results into an IVF-PQ vector index,
// and serves approximate nearest-neighbor search plus multi-document
// report synthesis over the indexed corpus.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, gemini/, http/).
package locsearch
