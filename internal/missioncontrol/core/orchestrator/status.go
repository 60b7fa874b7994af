package orchestrator

import (
	"context"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
)

// StatusSnapshot is a self-consistent view of one mission.
type StatusSnapshot struct {
	Mission           *model.Mission   `json:"mission"`
	ActiveCommands    int              `json:"active_commands"`
	CompletedCommands int              `json:"completed_commands"`
	FailedCommands    int              `json:"failed_commands"`
	LatestTelemetry   *model.Telemetry `json:"latest_telemetry"`
}

// GetMissionStatus returns a snapshot of the mission's full state.
func (o *Orchestrator) GetMissionStatus(_ context.Context, id string) (StatusSnapshot, error) {
	e, err := o.lookup(id)
	if err != nil {
		return StatusSnapshot{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := e.mission.CommandCounts()
	return StatusSnapshot{
		Mission:           e.mission.DeepCopy(),
		ActiveCommands:    counts[model.CommandPending] + counts[model.CommandExecuting],
		CompletedCommands: counts[model.CommandCompleted],
		FailedCommands:    counts[model.CommandFailed],
		LatestTelemetry:   e.mission.LatestTelemetry(),
	}, nil
}

// GetMission returns a copy of the mission.
func (o *Orchestrator) GetMission(_ context.Context, id string) (*model.Mission, error) {
	e, err := o.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mission.DeepCopy(), nil
}

// GetAllMissions summarizes every mission in creation order.
func (o *Orchestrator) GetAllMissions(_ context.Context) []model.MissionSummary {
	o.mu.RLock()
	entries := make([]*entry, 0, len(o.order))
	for _, id := range o.order {
		entries = append(entries, o.missions[id])
	}
	o.mu.RUnlock()

	out := make([]model.MissionSummary, 0, len(entries))
	for _, e := range entries {
		e.mu.RLock()
		out = append(out, e.mission.Summary())
		e.mu.RUnlock()
	}
	return out
}
