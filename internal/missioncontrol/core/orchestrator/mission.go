package orchestrator

import (
	"context"
	"fmt"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
)

// CreateMissionRequest describes a new mission. Objectives may be empty.
type CreateMissionRequest struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Objectives []string `json:"objectives,omitempty"`
}

var transitionEvents = map[string]core.EventType{
	model.MissionEventStart:    core.EventMissionStarted,
	model.MissionEventAbort:    core.EventMissionAborted,
	model.MissionEventComplete: core.EventMissionCompleted,
	model.MissionEventFail:     core.EventMissionFailed,
}

// CreateMission registers a planned mission and returns a copy of it.
func (o *Orchestrator) CreateMission(ctx context.Context, req CreateMissionRequest) (*model.Mission, error) {
	if req.ID == "" {
		return nil, model.Validationf("mission id is required")
	}

	m := model.NewMission(req.ID, req.Name, req.Objectives)

	o.mu.Lock()
	if _, exists := o.missions[req.ID]; exists {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateMission, req.ID)
	}
	o.missions[req.ID] = &entry{mission: m}
	o.order = append(o.order, req.ID)
	snapshot := m.DeepCopy()
	o.mu.Unlock()

	metrics.Missions.WithLabelValues(string(model.MissionPlanned)).Inc()
	o.logger.Info("Mission created", "missionID", req.ID, "name", req.Name, "objectives", req.Objectives)
	o.notify(core.Event{
		Type:      core.EventMissionCreated,
		MissionID: req.ID,
		Status:    snapshot.Status,
		Timestamp: o.clock.Now(),
	})

	return snapshot, nil
}

// StartMission moves a planned mission to active.
func (o *Orchestrator) StartMission(ctx context.Context, id string) error {
	return o.transition(ctx, id, model.MissionEventStart)
}

// AbortMission ends an active mission as aborted.
func (o *Orchestrator) AbortMission(ctx context.Context, id string) error {
	return o.transition(ctx, id, model.MissionEventAbort)
}

// CompleteMission ends an active mission as completed.
func (o *Orchestrator) CompleteMission(ctx context.Context, id string) error {
	return o.transition(ctx, id, model.MissionEventComplete)
}

// FailMission ends an active mission as failed.
func (o *Orchestrator) FailMission(ctx context.Context, id string) error {
	return o.transition(ctx, id, model.MissionEventFail)
}

// Transition fires a named mission event. It backs the adapters that accept the event name as input.
func (o *Orchestrator) Transition(ctx context.Context, id, event string) error {
	if _, ok := transitionEvents[event]; !ok {
		return model.Validationf("unknown mission event %q", event)
	}
	return o.transition(ctx, id, event)
}

func (o *Orchestrator) transition(ctx context.Context, id, event string) error {
	e, err := o.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	from := e.mission.Status
	now := o.clock.Now()
	if err := e.mission.Transition(ctx, event, now); err != nil {
		e.mu.Unlock()
		o.logger.Debug("Mission transition rejected", "missionID", id, "event", event, "status", string(from))
		return err
	}
	o.trackActive(id, e.mission.Status)
	snapshot := e.mission.DeepCopy()
	e.mu.Unlock()

	to := snapshot.Status
	metrics.MissionTransitions.WithLabelValues(event, string(to)).Inc()
	metrics.Missions.WithLabelValues(string(from)).Dec()
	metrics.Missions.WithLabelValues(string(to)).Inc()

	o.logger.Info("Mission transitioned", "missionID", id, "event", event, "from", string(from), "to", string(to))
	o.notify(core.Event{
		Type:      transitionEvents[event],
		MissionID: id,
		Status:    to,
		Timestamp: now,
	})

	if to.IsTerminal() {
		o.archive(snapshot)
	}
	return nil
}
