package pubsub

import (
	"context"

	"go.uber.org/zap"

	"github.com/crawlkit/keywordcrawl/internal/crawler"
)

// Mirror wraps a primary sink and republishes each record to Pub/Sub.
// Publish failures are logged, never surfaced: the topic is a best-effort
// mirror and must not abort a crawl the primary sink accepted.
type Mirror struct {
	primary   crawler.Sink
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

// NewMirror decorates primary with a Pub/Sub tee.
func NewMirror(primary crawler.Sink, publisher Publisher, topic string, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		primary:   primary,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Emit stores the record in the primary sink, then mirrors it to the topic.
func (m *Mirror) Emit(ctx context.Context, record crawler.PageRecord) error {
	if err := m.primary.Emit(ctx, record); err != nil {
		return err
	}
	if m.publisher == nil {
		return nil
	}
	if _, err := m.publisher.Publish(ctx, m.topic, record); err != nil {
		m.logger.Warn("pubsub mirror publish failed",
			zap.String("url", record.URL),
			zap.String("topic", m.topic),
			zap.Error(err))
	}
	return nil
}
