// Package mqtt accepts telemetry and command requests published to the broker.
package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	pkgmqtt "github.com/autopeer-io/missioncontrol/pkg/mqtt"
	"github.com/autopeer-io/missioncontrol/pkg/mqtt/topic"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

// Server implements the MQTT ingress layer.
type Server struct {
	client pkgmqtt.Client
	topics *topic.TopicBuilder
	orch   *orchestrator.Orchestrator
	opts   *options.MqttOptions
	logger log.Logger
}

// NewServer creates a new MQTT server (client).
func NewServer(client pkgmqtt.Client, opts *options.MqttOptions, orch *orchestrator.Orchestrator) *Server {
	return &Server{
		client: client,
		topics: topic.NewTopicBuilder(opts.TopicRoot),
		orch:   orch,
		opts:   opts,
		logger: log.WithName("mqtt"),
	}
}

// Start connects to the broker and subscribes to topics.
func (s *Server) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return err
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.client.Disconnect(shutdownCtx)
	}()

	s.logger.Info("Waiting for MQTT connection...", "broker", s.opts.Broker)
	if err := s.client.AwaitConnection(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	s.logger.Info("MQTT Connected")

	// The client replays these on every reconnect.
	if err := s.subscribe(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// Ready reports whether the broker connection is up.
func (s *Server) Ready(context.Context) error {
	if !s.client.IsConnected() {
		return errors.New("mqtt broker not connected")
	}
	return nil
}

func (s *Server) subscribe(ctx context.Context) error {
	subscriptions := map[string]struct {
		filter  string
		handler HandlerFunc
	}{
		topic.SuffixTelemetry: {s.topics.TelemetryWildcard(), JSONAdapter(s.topics, s.handleTelemetry)},
		topic.SuffixCommand:   {s.topics.CommandWildcard(), JSONAdapter(s.topics, s.handleCommand)},
	}

	for kind, sub := range subscriptions {
		filter := sub.filter
		if s.opts.SharedGroup != "" {
			filter = fmt.Sprintf("$share/%s/%s", s.opts.SharedGroup, filter)
		}
		if err := s.client.Subscribe(ctx, filter, s.opts.QoS, s.dispatch(kind, sub.handler)); err != nil {
			return fmt.Errorf("failed to subscribe to topic: %s, err: %w", filter, err)
		}
	}
	return nil
}

// dispatch adapts a HandlerFunc to the client callback, recording the outcome.
func (s *Server) dispatch(kind string, handler HandlerFunc) pkgmqtt.MessageHandler {
	return func(ctx context.Context, t string, payload []byte) {
		err := handler(ctx, t, payload)
		result := resultOf(err)
		metrics.MQTTMessages.WithLabelValues(kind, result).Inc()

		switch result {
		case "ok":
			s.logger.Debug("MQTT message handled", "topic", t, "kind", kind)
		case "internal":
			s.logger.Error(err, "Handler execution failed", "topic", t, "kind", kind)
		default:
			s.logger.Warn("MQTT message rejected", "topic", t, "kind", kind, "reason", err.Error())
		}
	}
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	case errors.Is(err, model.ErrMissionNotFound), errors.Is(err, model.ErrCommandNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInvalidTransition):
		return "conflict"
	default:
		return "internal"
	}
}
