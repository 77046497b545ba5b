package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/starshop/chatdesk/internal/types"
)

// KafkaConfig holds Kafka publisher configuration
type KafkaConfig struct {
	Enabled            bool
	Brokers            []string
	ConversationsTopic string
	HandoffsTopic      string
}

// LoadKafkaConfig loads Kafka config from environment
func LoadKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Enabled:            os.Getenv("KAFKA_ENABLED") == "true",
		Brokers:            strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		ConversationsTopic: getEnv("KAFKA_CONVERSATIONS_TOPIC", "chatdesk-conversation-events"),
		HandoffsTopic:      getEnv("KAFKA_HANDOFFS_TOPIC", "chatdesk-handoff-events"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// KafkaPublisher mirrors outbound events to Kafka topics for downstream
// consumers (dashboards, analytics). Writes are fire-and-forget from the
// caller's perspective: failures are logged, never propagated.
type KafkaPublisher struct {
	conversationsWriter *kafka.Writer
	handoffsWriter      *kafka.Writer
	logger              zerolog.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher
func NewKafkaPublisher(cfg KafkaConfig, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		conversationsWriter: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.ConversationsTopic,
			Balancer: &kafka.LeastBytes{},
		},
		handoffsWriter: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.HandoffsTopic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// PublishConversation sends a conversation event keyed by conversation id
func (p *KafkaPublisher) PublishConversation(event types.ConversationEvent) {
	p.send(p.conversationsWriter, event.Conversation.ID, event)
}

// PublishHandoffQueued sends a handoff-queued event keyed by conversation id
func (p *KafkaPublisher) PublishHandoffQueued(event types.HandoffQueuedEvent) {
	p.send(p.handoffsWriter, event.ConversationID, event)
}

func (p *KafkaPublisher) send(writer *kafka.Writer, key string, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("failed to marshal event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("failed to write event to kafka")
	}
}

// Close closes the Kafka writers
func (p *KafkaPublisher) Close() error {
	if err := p.conversationsWriter.Close(); err != nil {
		return err
	}
	return p.handoffsWriter.Close()
}
