// Package memory provides an in-memory record sink for tests and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

// Sink stores records in memory, upserting by url_hash like a real store.
type Sink struct {
	mu      sync.Mutex
	byHash  map[string]crawler.PageRecord
	ordered []string
}

// New creates an empty Sink.
func New() *Sink {
	return &Sink{byHash: make(map[string]crawler.PageRecord)}
}

// Emit upserts the record keyed by its url_hash.
func (s *Sink) Emit(_ context.Context, record crawler.PageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byHash[record.URLHash]; !ok {
		s.ordered = append(s.ordered, record.URLHash)
	}
	s.byHash[record.URLHash] = record
	return nil
}

// Records returns a copy of stored records in first-emit order.
func (s *Sink) Records() []crawler.PageRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]crawler.PageRecord, 0, len(s.ordered))
	for _, hash := range s.ordered {
		out = append(out, s.byHash[hash])
	}
	return out
}

// Get returns the stored record for hash, if any.
func (s *Sink) Get(hash string) (crawler.PageRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byHash[hash]
	return record, ok
}

// Len reports how many distinct hashes are stored.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
