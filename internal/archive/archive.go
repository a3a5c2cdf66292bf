// Package archive defines blob storage for raw page bodies.
// Implementations cover Google Cloud Storage and the local filesystem;
// Noop disables archiving while keeping the crawl pipeline unchanged.
package archive

import "context"

// Noop discards every object. Useful for dry runs where pages are
// fetched and recorded but bodies are not retained.
type Noop struct{}

// PutObject does nothing and reports an empty URI.
func (Noop) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}
