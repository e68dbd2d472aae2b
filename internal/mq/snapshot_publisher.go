package mq

import (
	"github.com/rs/zerolog"

	"ble-atlas/internal/models"
)

// SnapshotPublisher republishes each freshly computed snapshot on the
// broker (retained), so late-joining consumers get the current state
// immediately. Wired into the engine's update hook.
type SnapshotPublisher struct {
	client       *Client
	topicManager *TopicManager
	logger       zerolog.Logger
}

func NewSnapshotPublisher(client *Client, topicManager *TopicManager, logger zerolog.Logger) *SnapshotPublisher {
	return &SnapshotPublisher{
		client:       client,
		topicManager: topicManager,
		logger:       logger,
	}
}

func (p *SnapshotPublisher) Publish(snapshot *models.Snapshot) {
	if !p.client.IsConnected() {
		return
	}

	topic := p.topicManager.GetSnapshotTopic()
	if err := p.client.PublishJSON(topic, snapshot); err != nil {
		p.logger.Warn().Err(err).
			Str("topic", topic).
			Msg("Failed to publish snapshot")
	}
}
