// Package missioncontrol assembles the mission control server.
package missioncontrol

import (
	"context"
	"time"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/executor"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/server"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/storage"
	"github.com/autopeer-io/missioncontrol/pkg/log"
	"github.com/autopeer-io/missioncontrol/pkg/options"
)

// MissionControlServer is the main application struct.
type MissionControlServer struct {
	orchestrator  *orchestrator.Orchestrator
	executors     *executor.Table
	archive       *storage.MinIO
	serverManager *server.Manager
}

// Run starts every enabled server and blocks until ctx is done or one of them fails.
func (s *MissionControlServer) Run(ctx context.Context) error {
	log.Info("Starting Mission Control...")

	if s.archive != nil {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := s.archive.CheckBucket(checkCtx); err != nil {
			// Archiving is retried per mission; a cold object store must not block startup.
			log.Error(err, "Object storage unavailable, finished missions may not be archived")
		}
		cancel()
	}

	return s.serverManager.Start(ctx)
}

// Orchestrator returns the mission registry.
func (s *MissionControlServer) Orchestrator() *orchestrator.Orchestrator {
	return s.orchestrator
}

// ReloadExecutors replaces the configured executor rules without a restart.
func (s *MissionControlServer) ReloadExecutors(rules []options.ExecutorRule) error {
	if err := s.executors.Reset(ExecutorRules(rules)); err != nil {
		return err
	}
	log.Info("Executor rules reloaded", "types", s.executors.Types())
	return nil
}
