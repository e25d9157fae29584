package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/pubsub"

	"tubedigest/domain/repository"
	"tubedigest/infrastructure/logger"
)

// NewPubSub connects to Google Cloud Pub/Sub for the given project. An empty
// project ID disables publishing.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, nil
	}
	return pubsub.NewClient(ctx, projectID)
}

// SelectionEvents publishes selection.changed messages consumed by the
// digest assembly pipeline. With a nil client every publish is a no-op; the
// dashboard never depends on the broker being up.
type SelectionEvents struct {
	client *pubsub.Client
	topic  string
}

func NewSelectionEvents(client *pubsub.Client, topic string) repository.ISelectionEvents {
	return &SelectionEvents{client: client, topic: topic}
}

type selectionChangedEvent struct {
	UserID     string    `json:"userId"`
	ChannelIDs []string  `json:"channelIds"`
	OccurredAt time.Time `json:"occurredAt"`
}

func (s *SelectionEvents) SelectionChanged(ctx context.Context, userID string, channelIDs []string) error {
	if s == nil || s.client == nil {
		return nil
	}
	payload, err := json.Marshal(selectionChangedEvent{
		UserID:     userID,
		ChannelIDs: channelIDs,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	topic := s.client.Topic(s.topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.GetLogger().WithField("topic", s.topic).Info("Topic doesn't exist - creating it")
		if _, err := s.client.CreateTopic(ctx, s.topic); err != nil {
			return err
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().
		WithField("server ID", serverID).
		WithField("user_id", userID).
		Info("selection.changed published")
	return nil
}
