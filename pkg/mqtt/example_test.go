package mqtt_test

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt/topic"
)

// ExampleClient shows the lifecycle of a client: create, start, subscribe, publish, disconnect.
func ExampleClient() {
	cfg := &mqtt.ClientConfig{
		BrokerURL:      "tcp://localhost:1883",
		ClientID:       "ground-station-001",
		KeepAlive:      60,
		ConnectTimeout: 5 * time.Second,
		CleanStart:     true,
	}

	client, err := mqtt.NewClient(cfg)
	if err != nil {
		log.Error(err, "Failed to create MQTT client")
		return
	}

	// Start returns immediately; connecting and reconnecting happen in the background.
	ctx := context.Background()
	if err := client.Start(ctx); err != nil {
		log.Error(err, "Failed to start MQTT client")
		return
	}

	topics := topic.NewTopicBuilder("missioncontrol/v1")

	if err := client.AwaitConnection(ctx); err != nil {
		log.Error(err, "Connection timed out")
		return
	}

	// Subscribing needs a live connection. Subscriptions survive reconnects.
	onEvent := func(ctx context.Context, t string, payload []byte) {
		fmt.Printf("event on %s: %s\n", t, payload)
	}
	if err := client.Subscribe(ctx, topics.EventsWildcard(), 1, onEvent); err != nil {
		log.Error(err, "Failed to subscribe", "topic", topics.EventsWildcard())
	}

	payload := []byte(`{"altitude": 15000, "velocity": 250, "fuel_level": 75.5}`)
	if err := client.Publish(ctx, topics.Telemetry("MARS_001"), 1, false, payload); err != nil {
		log.Error(err, "Failed to publish telemetry")
	}

	client.Disconnect(ctx)
}
