package missioncontrol

import (
	"fmt"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/executor"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/notifier"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/server"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/server/grpc"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/server/http"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/server/mqtt"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/storage"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

type Config struct {
	HttpOptions    *options.HttpOptions
	GrpcOptions    *options.GrpcOptions
	MqttOptions    *options.MqttOptions
	S3Options      *options.S3Options
	MissionOptions *options.MissionOptions
}

// NewMissionControlServer wires the orchestrator to its adapters.
func (cfg *Config) NewMissionControlServer() (*MissionControlServer, error) {
	// 1. Command executors: built-ins plus configured rules.
	executors := executor.NewTable()
	if err := executors.Reset(ExecutorRules(cfg.MissionOptions.Executors)); err != nil {
		return nil, fmt.Errorf("invalid executor rules: %w", err)
	}

	// 2. Secondary adapters.
	orchOpts := []orchestrator.Option{
		orchestrator.WithExecutors(executors),
		orchestrator.WithLogger(log.WithName("orchestrator")),
	}

	var archive *storage.MinIO
	if cfg.S3Options.Enabled {
		var err error
		archive, err = storage.NewMinIO(cfg.S3Options)
		if err != nil {
			return nil, err
		}
		orchOpts = append(orchOpts, orchestrator.WithArchiver(archive))
	}

	var events *notifier.MQTTNotifier
	if cfg.MqttOptions.Enabled && cfg.MissionOptions.PublishEvents {
		var err error
		events, err = notifier.NewMQTTNotifier(cfg.MqttOptions)
		if err != nil {
			return nil, fmt.Errorf("failed to init notifier: %w", err)
		}
		orchOpts = append(orchOpts, orchestrator.WithNotifier(events))
	}

	// 3. Core.
	orch := orchestrator.New(orchOpts...)

	// 4. Primary adapters. The orchestrator itself delivers queued events and archives.
	mgr := server.NewManager(orch)
	var httpOpts []http.Option

	if cfg.MqttOptions.Enabled {
		client, err := InitializeMQTTClient(cfg.MqttOptions)
		if err != nil {
			return nil, err
		}
		ingress := mqtt.NewServer(client, cfg.MqttOptions, orch)
		mgr.Add(ingress)
		httpOpts = append(httpOpts, http.WithReadinessCheck("mqtt", ingress.Ready))
	}
	if events != nil {
		mgr.Add(events)
	}
	if archive != nil {
		httpOpts = append(httpOpts, http.WithArchiveLinks(archive))
	}
	if cfg.GrpcOptions.Enabled {
		mgr.Add(grpc.NewServer(cfg.GrpcOptions))
	}
	mgr.Add(http.NewServer(cfg.HttpOptions, orch, httpOpts...))

	return &MissionControlServer{
		orchestrator:  orch,
		executors:     executors,
		archive:       archive,
		serverManager: mgr,
	}, nil
}

// ExecutorRules converts configured rules to executor rules.
func ExecutorRules(in []options.ExecutorRule) []executor.Rule {
	out := make([]executor.Rule, 0, len(in))
	for _, r := range in {
		out = append(out, executor.Rule{Type: r.Type, Required: r.Required, Message: r.Message})
	}
	return out
}

var (
	_ core.Archiver      = (*storage.MinIO)(nil)
	_ core.EventNotifier = (*notifier.MQTTNotifier)(nil)
)
