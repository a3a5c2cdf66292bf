package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

func TestEmitUpsertsByHash(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	require.NoError(t, s.Emit(ctx, crawler.PageRecord{URLHash: "a", Title: "first"}))
	require.NoError(t, s.Emit(ctx, crawler.PageRecord{URLHash: "b", Title: "second"}))
	require.NoError(t, s.Emit(ctx, crawler.PageRecord{URLHash: "a", Title: "updated"}))

	require.Equal(t, 2, s.Len())

	records := s.Records()
	require.Len(t, records, 2)
	require.Equal(t, "updated", records[0].Title)
	require.Equal(t, "second", records[1].Title)

	got, ok := s.Get("a")
	require.True(t, ok)
	require.Equal(t, "updated", got.Title)

	_, ok = s.Get("missing")
	require.False(t, ok)
}
