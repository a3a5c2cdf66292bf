// Package crawler implements the crawl-control engine: URL canonicalization,
// duplicate suppression, the bounded frontier, link filtering, per-page
// record assembly and the traversal loop that ties them together.
package crawler

import (
	"net/http"
	"time"
)

// CrawlTask is one unit of frontier work. It is created when a seed is
// admitted or a discovered link is accepted, and consumed exactly once by
// the traversal loop.
type CrawlTask struct {
	URL      string
	Depth    int
	Referrer string
}

// Limits bounds a single crawl run. Immutable once the run starts.
type Limits struct {
	MaxDepth int
	MaxURLs  int
}

// ValidationResult reports whether a candidate URL is crawlable and, when it
// is not, why it was rejected.
type ValidationResult struct {
	Valid  bool
	Reason string
}

// PageRecord is the single structured output unit per visited or failed URL.
// Exactly one record is emitted per dequeued task, success or failure.
type PageRecord struct {
	RunID         string         `json:"run_id"`
	URL           string         `json:"url"`
	URLHash       string         `json:"url_hash"`
	NormalizedURL string         `json:"normalized_url"`
	Domain        string         `json:"domain"`
	SourceURL     string         `json:"source_url,omitempty"`
	Depth         int            `json:"depth"`
	Keywords      []string       `json:"keywords"`
	Title         string         `json:"title,omitempty"`
	Description   string         `json:"description,omitempty"`
	StatusCode    *int           `json:"status_code,omitempty"`
	ContentType   string         `json:"content_type,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
	ErrorCount    int            `json:"error_count"`
	IsActive      bool           `json:"is_active"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL         string
	StatusCode  int
	Headers     http.Header
	Body        []byte
	ContentType string
	Duration    time.Duration
}

// PageMeta carries the metadata a Parser extracts from a fetched body.
type PageMeta struct {
	Title       string
	Description string
	VisibleText string
}

// RunStats aggregates run-level counters reported when a crawl terminates.
type RunStats struct {
	RunID             string    `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	URLsProcessed     int       `json:"urls_processed"`
	URLsFailed        int       `json:"urls_failed"`
	DuplicatesSkipped int       `json:"duplicates_skipped"`
	ValidationRejects int       `json:"validation_rejects"`
	Reason            string    `json:"reason"`
}
