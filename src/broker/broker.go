// Package broker carries report announcements between the assembler and its consumers.
package broker

import (
	"context"

	"tracekeep/src/logger"
)

// Broker abstracts message publishing and consumption.
// The in-memory implementation serves single-process runs; Redpanda fans
// announcements out to other services.
type Broker interface {
	// Publish sends a message to a topic with a key for partitioning.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe returns a channel of messages on topic. The channel closes
	// when ctx is done or the broker is closed.
	Subscribe(ctx context.Context, topic string, groupID string) (<-chan Message, error)

	// Close shuts down the broker connection gracefully.
	Close() error
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64
}

// New returns a Redpanda broker when seed brokers are given, otherwise an in-memory one.
func New(brokers []string, log logger.Logger) (Broker, error) {
	if len(brokers) == 0 {
		return NewInMemoryBroker(), nil
	}
	return NewRedpandaBroker(brokers, log)
}
