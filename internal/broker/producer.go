// Package broker wraps the Kafka producer and consumer used for shipping
// requests and results, generalized from the teacher's
// messaging.OutboxPublisher.publishEvent send shape and extended with an
// idempotent-producer configuration and a consumer group, which the
// teacher never needed.
package broker

import (
	"fmt"

	"github.com/IBM/sarama"
)

// Producer publishes JSON-encoded values with string keys to a single
// configured topic, idempotent (broker-native dedup) with acks=1.
type Producer struct {
	syncProducer sarama.SyncProducer
	topic        string
}

// NewProducerConfig returns a sarama config matching spec.md §4.H: an
// idempotent producer, acks=1, JSON values, string keys.
func NewProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true
	cfg.Net.MaxOpenRequests = 1
	cfg.Version = sarama.V2_6_0_0
	return cfg
}

// NewProducer starts a sync producer against the given brokers/topic.
func NewProducer(brokers []string, topic string) (*Producer, error) {
	syncProducer, err := sarama.NewSyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	return &Producer{syncProducer: syncProducer, topic: topic}, nil
}

// Publish sends a JSON payload keyed by key. Failures propagate to the
// dispatcher so the outbox row stays pending (§4.F).
func (p *Producer) Publish(key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}
	_, _, err := p.syncProducer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to kafka: %w", err)
	}
	return nil
}

// Stop closes the producer. Part of the explicit start/stop lifecycle
// spec.md requires.
func (p *Producer) Stop() error {
	return p.syncProducer.Close()
}
