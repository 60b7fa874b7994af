package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	pkgmqtt "github.com/autopeer-io/missioncontrol/pkg/mqtt"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt/topic"
)

type published struct {
	topic   string
	qos     int
	payload []byte
}

type fakeClient struct {
	mu        sync.Mutex
	connected bool
	published []published
}

var _ pkgmqtt.Client = (*fakeClient)(nil)

func (c *fakeClient) Start(context.Context) error { return nil }
func (c *fakeClient) Disconnect(context.Context)  {}
func (c *fakeClient) Subscribe(context.Context, string, int, pkgmqtt.MessageHandler) error {
	return nil
}
func (c *fakeClient) Unsubscribe(context.Context, string) error { return nil }
func (c *fakeClient) AwaitConnection(context.Context) error     { return nil }
func (c *fakeClient) IsConnected() bool                         { return c.connected }
func (c *fakeClient) Publish(_ context.Context, t string, qos int, _ bool, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: t, qos: qos, payload: p})
	return nil
}

func TestNotifyPublishesEnvelope(t *testing.T) {
	client := &fakeClient{connected: true}
	n := NewNotifier(client, topic.NewTopicBuilder("mc/v1"), 1)
	n.newID = func() string { return "evt-1" }

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cmd := model.NewCommand("cmd_0001", "ignition", nil, ts)
	require.NoError(t, n.Notify(context.Background(), core.Event{
		Type:      core.EventCommandSent,
		MissionID: "MARS_001",
		Status:    model.MissionActive,
		Timestamp: ts,
		Command:   &cmd,
	}))

	require.Len(t, client.published, 1)
	msg := client.published[0]
	assert.Equal(t, "mc/v1/mission/MARS_001/events", msg.topic)
	assert.Equal(t, 1, msg.qos)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.payload, &env))
	assert.Equal(t, "evt-1", env.ID)
	assert.Equal(t, core.EventCommandSent, env.Type)
	assert.Equal(t, "cmd_0001", env.CommandID)
	assert.Equal(t, model.MissionActive, env.Status)
	assert.True(t, ts.Equal(env.Timestamp))
	assert.Nil(t, env.Telemetry)
}

func TestNotifyWhileDisconnected(t *testing.T) {
	client := &fakeClient{}
	n := NewNotifier(client, topic.NewTopicBuilder("mc/v1"), 0)

	err := n.Notify(context.Background(), core.Event{Type: core.EventMissionCreated, MissionID: "M1"})
	require.ErrorIs(t, err, ErrNotConnected)
	assert.Empty(t, client.published)
}

func TestStartStopsWithContext(t *testing.T) {
	n := NewNotifier(&fakeClient{}, topic.NewTopicBuilder("mc/v1"), 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
