package kafka

import (
	"context"
	"encoding/json"
	"log"

	"order-service/models"

	"github.com/segmentio/kafka-go"
)

// Producer publishes order lifecycle events.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Printf("[OrderService][KafkaProducer] initialized topic=%s brokers=%v", topic, brokers)
	return &Producer{writer: w, topic: topic}
}

// PublishOrderCreated emits an order.created event keyed by order id.
func (p *Producer) PublishOrderCreated(ctx context.Context, evt models.OrderCreatedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("❌ [OrderService][KafkaProducer] failed to publish order-created order=%s topic=%s err=%v", evt.OrderID, p.topic, err)
		return err
	}
	log.Printf("✅ [OrderService][KafkaProducer] order-created published order=%s total=%d topic=%s", evt.OrderID, evt.Total, p.topic)
	return nil
}

func (p *Producer) Close() error {
	log.Printf("[OrderService][KafkaProducer] closing writer topic=%s", p.topic)
	return p.writer.Close()
}
