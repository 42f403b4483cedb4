package broker

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// NewConsumerConfig returns a sarama config reading from the oldest
// available offset (auto_offset_reset=earliest) with manual offset commit.
func NewConsumerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	cfg.Consumer.Offsets.AutoCommit.Enable = false
	cfg.Version = sarama.V2_6_0_0
	return cfg
}

// MessageHandler processes one decoded message. It must commit its own
// database transaction before returning nil; a non-nil error leaves the
// offset uncommitted so the message is redelivered.
type MessageHandler func(ctx context.Context, value []byte) error

// Consumer reads a single configured topic within one consumer group,
// committing offsets manually after the handler's transaction succeeds.
type Consumer struct {
	group  sarama.ConsumerGroup
	topic  string
	logger zerolog.Logger
}

// NewConsumer joins the given consumer group against brokers/topic.
func NewConsumer(brokers []string, groupID, topic string, logger zerolog.Logger) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(brokers, groupID, NewConsumerConfig())
	if err != nil {
		return nil, fmt.Errorf("start kafka consumer group: %w", err)
	}
	return &Consumer{group: group, topic: topic, logger: logger.With().Str("component", "broker_consumer").Logger()}, nil
}

// Run blocks, re-joining the group on every rebalance, until ctx is
// cancelled. handler is invoked once per message; session.MarkMessage and
// session.Commit are issued only after handler returns nil, per spec.md's "commit the
// database transaction, then commit the broker offset" ordering.
func (c *Consumer) Run(ctx context.Context, handler MessageHandler) error {
	h := &consumerGroupHandler{handler: handler, logger: c.logger}
	for {
		if err := c.group.Consume(ctx, []string{c.topic}, h); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("consume: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Stop closes the consumer group.
func (c *Consumer) Stop() error {
	return c.group.Close()
}

type consumerGroupHandler struct {
	handler MessageHandler
	logger  zerolog.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.handler(session.Context(), msg.Value); err != nil {
				h.logger.Error().Err(err).
					Str("topic", msg.Topic).
					Int32("partition", msg.Partition).
					Int64("offset", msg.Offset).
					Msg("failed to process message, offset not committed")
				// Ending the claim ends the session; Run rejoins the group and
				// the message is consumed again from the last committed offset.
				return nil
			}
			session.MarkMessage(msg, "")
			session.Commit()
		case <-session.Context().Done():
			return nil
		}
	}
}
