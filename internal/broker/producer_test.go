package broker

import (
	"testing"

	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProducer_Publish_Success(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewProducerConfig())
	mockProducer.ExpectSendMessageAndSucceed()

	p := &Producer{syncProducer: mockProducer, topic: "student_system_order.events"}
	require.NoError(t, p.Publish("order-1", []byte(`{"event_type":"shipping.requested"}`)))
	require.NoError(t, mockProducer.Close())
}

func TestProducer_Publish_PropagatesError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, NewProducerConfig())
	mockProducer.ExpectSendMessageAndFail(assert.AnError)

	p := &Producer{syncProducer: mockProducer, topic: "student_system_order.events"}
	err := p.Publish("order-1", []byte(`{}`))
	assert.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestNewProducerConfig_IsIdempotent(t *testing.T) {
	cfg := NewProducerConfig()
	assert.True(t, cfg.Producer.Idempotent)
	assert.Equal(t, 1, cfg.Net.MaxOpenRequests)
}
