package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ngo_backend/internal/logger"

	"github.com/IBM/sarama"
)

const TypeDonationCreated = "donation.created"

// DonationCreated - событие для квитанций, уведомлений и аналитики.
type DonationCreated struct {
	Type          string    `json:"type"`
	DonationID    string    `json:"donation_id"`
	ReceiptNumber string    `json:"receipt_number"`
	TransactionID string    `json:"transaction_id"`
	OrderID       string    `json:"order_id"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Purpose       string    `json:"purpose"`
	DonorName     string    `json:"donor_name"`
	EventID       *string   `json:"event_id,omitempty"`
	EventItemID   *string   `json:"event_item_id,omitempty"`
	ItemQuantity  int       `json:"item_quantity,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishDonationCreated(ctx context.Context, evt DonationCreated) error
	Close() error
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaPublisher ждёт брокер несколько попыток, как при старте в docker-compose.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	var (
		producer sarama.SyncProducer
		err      error
	)
	for i := 1; i <= 5; i++ {
		producer, err = sarama.NewSyncProducer(brokers, config)
		if err == nil {
			logger.Info("Kafka producer initialized", "brokers", brokers, "topic", topic)
			return NewKafkaPublisherWithProducer(producer, topic), nil
		}
		logger.Warn("Waiting for Kafka", "attempt", i, "error", err.Error())
		time.Sleep(2 * time.Second)
	}
	return nil, fmt.Errorf("kafka producer: %w", err)
}

func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishDonationCreated(ctx context.Context, evt DonationCreated) error {
	evt.Type = TypeDonationCreated
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", TypeDonationCreated, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(evt.OrderID), // все события заказа в одной партиции
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(TypeDonationCreated)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("send %s: %w", TypeDonationCreated, err)
	}
	logger.CtxDebug(ctx, "donation event published", "partition", partition, "offset", offset)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher - Kafka не настроена
type NoopPublisher struct{}

func (NoopPublisher) PublishDonationCreated(context.Context, DonationCreated) error { return nil }
func (NoopPublisher) Close() error                                                 { return nil }
