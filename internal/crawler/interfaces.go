package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves a single URL. Retry policy, if any, lives inside the
// implementation; the engine treats a returned error as terminal for the task.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (FetchResponse, error)
}

// Parser extracts links and page metadata from a fetched body.
type Parser interface {
	ExtractLinks(baseURL string, body []byte) ([]string, error)
	ExtractMeta(body []byte) (PageMeta, error)
}

// Sink receives one PageRecord per visited or failed URL. Emit must be an
// idempotent upsert keyed by url_hash; re-fetches across runs are possible.
type Sink interface {
	Emit(ctx context.Context, record PageRecord) error
}

// BlobStore archives raw page bodies and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Hasher computes digests used as deduplication keys.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
