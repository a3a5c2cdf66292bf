package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
	"github.com/crawlkit/keywordcrawl/internal/sink/memory"
)

type memoryPublisher struct {
	mu       sync.Mutex
	payloads []any
	err      error
}

func (p *memoryPublisher) Publish(_ context.Context, _ string, payload any) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.payloads = append(p.payloads, payload)
	return fmt.Sprintf("memory-%d", len(p.payloads)), nil
}

type failingSink struct{}

func (failingSink) Emit(context.Context, crawler.PageRecord) error {
	return errors.New("store unavailable")
}

func TestMirrorPublishesAfterPrimary(t *testing.T) {
	t.Parallel()

	primary := memory.New()
	pub := &memoryPublisher{}
	mirror := NewMirror(primary, pub, "pages", zap.NewNop())

	record := crawler.PageRecord{URLHash: "abc", URL: "https://example.com"}
	require.NoError(t, mirror.Emit(context.Background(), record))

	require.Equal(t, 1, primary.Len())
	require.Len(t, pub.payloads, 1)
	require.Equal(t, record, pub.payloads[0])
}

func TestMirrorPublishFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	primary := memory.New()
	pub := &memoryPublisher{err: errors.New("topic gone")}
	mirror := NewMirror(primary, pub, "pages", zap.NewNop())

	require.NoError(t, mirror.Emit(context.Background(), crawler.PageRecord{URLHash: "abc"}))
	require.Equal(t, 1, primary.Len())
}

func TestMirrorPrimaryFailureSurfaces(t *testing.T) {
	t.Parallel()

	pub := &memoryPublisher{}
	mirror := NewMirror(failingSink{}, pub, "pages", zap.NewNop())

	err := mirror.Emit(context.Background(), crawler.PageRecord{URLHash: "abc"})
	require.Error(t, err)
	require.Empty(t, pub.payloads)
}
