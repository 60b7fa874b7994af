package mqtt

import (
	"context"
)

// MessageHandler processes one received message. ctx expires after ClientConfig.HandlerTimeout.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Publisher sends messages to the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Subscriber routes messages matching a topic filter to a handler.
// Filters may use the + and # wildcards and the $share/<group>/ prefix.
type Subscriber interface {
	// Subscribe needs a live connection. The subscription is restored after every reconnect.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error
	Unsubscribe(ctx context.Context, topic string) error
}

// Client is a reconnecting MQTT v5 client.
type Client interface {
	Publisher
	Subscriber

	// Start begins connecting in the background and returns immediately.
	Start(ctx context.Context) error
	// AwaitConnection blocks until the client is connected or ctx is done.
	AwaitConnection(ctx context.Context) error
	IsConnected() bool
	Disconnect(ctx context.Context)
}
