package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"ble-atlas/internal/engine"
	"ble-atlas/internal/models"
	"ble-atlas/internal/mq"
)

var (
	ErrMessageIsNil   = errors.New("message is nil")
	ErrEmptyMessage   = errors.New("message payload is empty")
	ErrInvalidMessage = errors.New("message payload is invalid")
)

// ReportHandler feeds sighting reports published over MQTT into the
// same pipeline entry point the HTTP API uses.
type ReportHandler struct {
	engine       *engine.Engine
	logger       zerolog.Logger
	topicManager *mq.TopicManager
}

func NewReportHandler(topicManager *mq.TopicManager, eng *engine.Engine, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		engine:       eng,
		logger:       logger,
		topicManager: topicManager,
	}
}

func (h *ReportHandler) TransformMessage(msg mqtt.Message) (*models.Report, error) {
	if msg == nil {
		return nil, ErrMessageIsNil
	}

	topic := msg.Topic()
	payload := msg.Payload()

	if len(payload) == 0 {
		return nil, ErrEmptyMessage
	}

	var report models.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("could not parse report: %w", ErrInvalidMessage)
	}

	// The topic segment wins over an empty or conflicting body id.
	if displayID, err := h.topicManager.ExtractDisplayID(topic); err == nil {
		report.DisplayID = displayID
	}

	return &report, nil
}

func (h *ReportHandler) HandleMessage(client mqtt.Client, msg mqtt.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topic := msg.Topic()

	report, err := h.TransformMessage(msg)
	if err != nil {
		if errors.Is(err, ErrEmptyMessage) {
			return
		}

		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("payload", string(msg.Payload())).
			Msg("Failed to transform report message")
		return
	}

	if err := h.engine.SubmitReport(ctx, report); err != nil {
		h.logger.Error().Err(err).
			Str("topic", topic).
			Str("display_id", report.DisplayID).
			Msg("Failed to process report")
		return
	}

	h.logger.Debug().
		Str("topic", topic).
		Str("display_id", report.DisplayID).
		Int("devices", len(report.Devices)).
		Msg("Report processed")
}
