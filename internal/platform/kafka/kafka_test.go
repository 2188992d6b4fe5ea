package kafka_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"calldex/internal/platform/config"
	"calldex/internal/platform/kafka"
)

func TestNewProducerAcceptsKafkaConfig(t *testing.T) {
	cfg := config.Kafka{
		Brokers:    []string{"localhost:9092"},
		Topic:      "calldex.events",
		Group:      "calldex-worker",
		Partitions: 3,
	}

	client, err := kafka.NewProducer(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()
}

func TestNewConsumerAcceptsKafkaConfig(t *testing.T) {
	cfg := config.Kafka{
		Brokers: []string{"localhost:9092"},
		Topic:   "calldex.events",
		Group:   "calldex-worker",
	}

	client, err := kafka.NewConsumer(cfg)
	require.NoError(t, err)
	require.NotNil(t, client)
	client.Close()
}
