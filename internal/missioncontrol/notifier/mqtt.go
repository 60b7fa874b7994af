// Package notifier publishes committed mission events over MQTT.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	pkgmqtt "github.com/autopeer-io/missioncontrol/pkg/mqtt"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt/topic"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

// ErrNotConnected is returned while the egress connection is down. Events are not buffered.
var ErrNotConnected = errors.New("mqtt notifier is not connected")

const publishTimeout = 5 * time.Second

var _ core.EventNotifier = (*MQTTNotifier)(nil)

// Envelope is the JSON document published for every event.
type Envelope struct {
	ID        string              `json:"id"`
	Type      core.EventType      `json:"type"`
	MissionID string              `json:"mission_id"`
	Status    model.MissionStatus `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	CommandID string              `json:"command_id,omitempty"`
	Command   *model.Command      `json:"command,omitempty"`
	Telemetry *model.Telemetry    `json:"telemetry,omitempty"`
}

// MQTTNotifier publishes to {root}/mission/{id}/events.
type MQTTNotifier struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	qos    int
	newID  func() string
}

// NewMQTTNotifier creates a notifier with a dedicated egress connection,
// separate from the ingress subscriber. The connection is opened by Start.
func NewMQTTNotifier(opts *options.MqttOptions) (*MQTTNotifier, error) {
	cfg := opts.ToClientConfig()
	cfg.ClientID = opts.ClientID + "-notifier"

	client, err := pkgmqtt.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewNotifier(client, topic.NewTopicBuilder(opts.TopicRoot), opts.QoS), nil
}

// NewNotifier wraps an existing client.
func NewNotifier(client pkgmqtt.Client, topics *topic.TopicBuilder, qos int) *MQTTNotifier {
	return &MQTTNotifier{
		client: client,
		topics: topics,
		qos:    qos,
		newID:  uuid.NewString,
	}
}

// Start connects and holds the connection until ctx is done.
func (n *MQTTNotifier) Start(ctx context.Context) error {
	if err := n.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notifier client: %w", err)
	}
	log.Info("MQTT notifier started", "topic", n.topics.EventsWildcard())

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	n.client.Disconnect(shutdownCtx)
	return nil
}

// Notify publishes the event. It never blocks longer than the publish timeout.
func (n *MQTTNotifier) Notify(ctx context.Context, ev core.Event) error {
	if !n.client.IsConnected() {
		return ErrNotConnected
	}

	env := Envelope{
		ID:        n.newID(),
		Type:      ev.Type,
		MissionID: ev.MissionID,
		Status:    ev.Status,
		Timestamp: ev.Timestamp,
		Command:   ev.Command,
		Telemetry: ev.Telemetry,
	}
	if ev.Command != nil {
		env.CommandID = ev.Command.ID
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", ev.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return n.client.Publish(ctx, n.topics.Events(ev.MissionID), n.qos, false, payload)
}
