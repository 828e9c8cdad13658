package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const (
	TypeChargesSaved   = "charges.saved"
	TypeChargesDeleted = "charges.deleted"
)

// Event is the message published for every persisted change to a charges
// calculation.
type Event struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	TenantID     string          `json:"tenantId"`
	EntityID     string          `json:"entityId"`
	ProjectID    string          `json:"projectId,omitempty"`
	Period       string          `json:"period,omitempty"`
	TotalCharges decimal.Decimal `json:"totalCharges"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// Encode fills ID and OccurredAt when missing and returns the wire payload.
func Encode(evt *Event) ([]byte, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                        { return nil }

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           10 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish keys messages by tenant so one tenant's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := Encode(&evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(evt.TenantID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(evt.Type)},
		},
	}); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// New returns a Kafka publisher when brokers are configured and a no-op one
// otherwise.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return Nop{}
	}
	return NewKafkaPublisher(brokers, topic)
}
