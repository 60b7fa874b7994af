package app

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	genericapiserver "k8s.io/apiserver/pkg/server"

	"github.com/autopeer-io/missioncontrol/cmd/mission-control/app/options"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol"
	"github.com/autopeer-io/missioncontrol/pkg/app"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	pkgoptions "github.com/autopeer-io/missioncontrol/pkg/options"
)

const (
	commandName = "mission-control"
	commandDesc = `Mission control tracks missions through their lifecycle, dispatches
commands to registered executors and collects telemetry. Missions are
driven over HTTP or MQTT, and finished missions can be archived to S3.`
)

func NewApp() *app.App {
	opts := options.NewMissionControlOptions()
	r := &reloader{}
	application := app.NewApp(
		commandName,
		"Launch a mission control server",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts, r)),
		app.WithConfigChangeFunc(r.onConfigChange),
	)
	return application
}

func run(opts *options.MissionControlOptions, r *reloader) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync() //nolint:errcheck

		ctx := genericapiserver.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		server, err := cfg.NewMissionControlServer()
		if err != nil {
			return fmt.Errorf("failed to create mission control server: %w", err)
		}
		r.set(server)

		return server.Run(ctx)
	}
}

// reloader applies log level and executor rule changes from the config file to a running server.
type reloader struct {
	mu     sync.Mutex
	server *missioncontrol.MissionControlServer
}

func (r *reloader) set(s *missioncontrol.MissionControlServer) {
	r.mu.Lock()
	r.server = s
	r.mu.Unlock()
}

func (r *reloader) onConfigChange(e fsnotify.Event, v *viper.Viper) {
	if level := v.GetString("log.level"); level != "" {
		if err := log.SetLevel(level); err != nil {
			log.Error(err, "Failed to change log level", "file", e.Name)
		}
	}

	r.mu.Lock()
	server := r.server
	r.mu.Unlock()
	if server == nil {
		return
	}

	var rules []pkgoptions.ExecutorRule
	if err := v.UnmarshalKey("mission.executors", &rules); err != nil {
		log.Error(err, "Failed to decode executor rules", "file", e.Name)
		return
	}
	if err := server.ReloadExecutors(rules); err != nil {
		log.Error(err, "Some executor rules were rejected", "file", e.Name)
	}
}
