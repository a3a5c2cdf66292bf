// Package pubsub mirrors emitted page records onto a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub"
)

// Publisher publishes a JSON payload to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// TopicPublisher wraps a Pub/Sub topic handle.
type TopicPublisher struct {
	topic *gcppubsub.Topic
}

// NewTopicPublisher creates a TopicPublisher for the provided topic.
func NewTopicPublisher(topic *gcppubsub.Topic) *TopicPublisher {
	return &TopicPublisher{topic: topic}
}

// Connect dials Pub/Sub and returns a publisher for the project topic.
func Connect(ctx context.Context, projectID, topicID string) (*TopicPublisher, error) {
	if projectID == "" {
		return nil, fmt.Errorf("pubsub.project is required")
	}
	if topicID == "" {
		return nil, fmt.Errorf("pubsub.topic is required")
	}
	client, err := gcppubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("connect pubsub: %w", err)
	}
	return &TopicPublisher{topic: client.Topic(topicID)}, nil
}

// Publish marshals the payload to JSON and publishes it to the topic.
func (p *TopicPublisher) Publish(ctx context.Context, _ string, payload any) (string, error) {
	if p == nil || p.topic == nil {
		return "", fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic.Publish(ctx, &gcppubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}

// Stop flushes pending publishes and releases topic resources.
func (p *TopicPublisher) Stop() {
	if p == nil || p.topic == nil {
		return
	}
	p.topic.Stop()
}
