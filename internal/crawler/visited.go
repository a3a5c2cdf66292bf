package crawler

import "sync"

// VisitedSet tracks canonical-hash membership for one crawl run. MarkIfNew
// is the single deduplication primitive: callers must never separately
// check then insert.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet returns an empty set.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// MarkIfNew atomically checks membership and inserts hash if absent. It
// returns true iff the hash was newly inserted, claiming the URL for the
// caller.
func (s *VisitedSet) MarkIfNew(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[hash]; ok {
		return false
	}
	s.seen[hash] = struct{}{}
	return true
}

// Len reports how many distinct hashes have been claimed.
func (s *VisitedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
