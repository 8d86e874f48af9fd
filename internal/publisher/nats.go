// Package publisher emits ingest events to NATS JetStream.
package publisher

import (
	"context"
	"fmt"

	"github.com/chanwatch/chanwatch/internal/ingest"
)

const (
	// StreamName is the jetstream stream holding post events.
	StreamName = "POSTS"
	// SubjectPostNew carries one event per newly persisted message.
	SubjectPostNew = "posts.new"
)

// ChanwatchStreamSubjects returns the subjects the posts stream must cover.
func ChanwatchStreamSubjects() []string {
	return []string{"posts.>"}
}

// JetStreamClient is the publishing surface we need from the nats client.
type JetStreamClient interface {
	Publish(ctx context.Context, subject string, data any) error
}

// NATSPublisher implements ingest.EventPublisher on top of jetstream.
type NATSPublisher struct {
	js JetStreamClient
}

// NewNATSPublisher creates a new publisher.
func NewNATSPublisher(js JetStreamClient) *NATSPublisher {
	return &NATSPublisher{js: js}
}

// PublishPostNew publishes a new-post event.
func (p *NATSPublisher) PublishPostNew(ctx context.Context, event ingest.PostNewEvent) error {
	if err := p.js.Publish(ctx, SubjectPostNew, event); err != nil {
		return fmt.Errorf("publish post event: %w", err)
	}
	return nil
}
