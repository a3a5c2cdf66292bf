package metrics

import (
	"context"
	"time"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

// InstrumentedSink decorates a record sink with Prometheus collectors.
type InstrumentedSink struct {
	next crawler.Sink
}

// InstrumentSink wraps next so every emitted record updates the page counters.
// Init must have been called before records flow through.
func InstrumentSink(next crawler.Sink) *InstrumentedSink {
	return &InstrumentedSink{next: next}
}

// Emit forwards the record and, when the sink accepts it, observes it.
func (s *InstrumentedSink) Emit(ctx context.Context, record crawler.PageRecord) error {
	if err := s.next.Emit(ctx, record); err != nil {
		return err
	}
	outcome := "success"
	if !record.IsActive {
		outcome = "failure"
		if category, ok := record.Metadata["error_type"].(string); ok && category != "" {
			outcome = category
		}
	}
	bodyBytes := 0
	if size, ok := record.Metadata["size"].(int); ok {
		bodyBytes = size
	}
	ObservePage(record.Domain, outcome, bodyBytes, record.Keywords)
	if ms, ok := record.Metadata["duration_ms"].(int64); ok && ms > 0 {
		ObserveFetchDuration(record.Domain, time.Duration(ms)*time.Millisecond)
	}
	return nil
}
