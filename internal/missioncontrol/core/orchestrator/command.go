package orchestrator

import (
	"context"
	"fmt"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
)

// SendCommandRequest describes a command to queue. Parameters may be nil.
type SendCommandRequest struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// SendCommand appends a pending command to an active mission and returns its id.
func (o *Orchestrator) SendCommand(ctx context.Context, missionID string, req SendCommandRequest) (string, error) {
	e, err := o.lookup(missionID)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	now := o.clock.Now()
	id, err := e.mission.AddCommand(req.Type, req.Parameters, now)
	if err != nil {
		e.mu.Unlock()
		return "", err
	}
	cmd, _ := e.mission.Command(id)
	sent := cmd.DeepCopy()
	status := e.mission.Status
	e.mu.Unlock()

	o.logger.Info("Command sent", "missionID", missionID, "commandID", id, "type", req.Type)
	o.notify(core.Event{
		Type:      core.EventCommandSent,
		MissionID: missionID,
		Status:    status,
		Timestamp: now,
		Command:   &sent,
	})
	return id, nil
}

// ExecuteCommand runs a pending command through its executor and returns the finished command.
//
// An executor failure is not an error of this call: the command ends in the failed
// status with the error description as its result. Errors are returned only when the
// mission or command is unknown, or the command is not pending.
func (o *Orchestrator) ExecuteCommand(ctx context.Context, missionID, commandID string) (model.Command, error) {
	e, err := o.lookup(missionID)
	if err != nil {
		return model.Command{}, err
	}

	e.mu.Lock()
	cmd, err := e.mission.Command(commandID)
	if err != nil {
		e.mu.Unlock()
		return model.Command{}, fmt.Errorf("%w: %s in mission %s", err, commandID, missionID)
	}
	if err := cmd.Begin(ctx); err != nil {
		e.mu.Unlock()
		return model.Command{}, err
	}

	start := o.clock.Now()
	output, execErr := o.executors.Execute(ctx, cmd.Type, cmd.DeepCopy().Parameters)
	elapsed := o.clock.Since(start)

	if err := cmd.Finish(ctx, output, execErr, o.clock.Now()); err != nil {
		// Begin succeeded under the same lock, so the command is executing.
		e.mu.Unlock()
		return model.Command{}, err
	}
	done := cmd.DeepCopy()
	status := e.mission.Status
	e.mu.Unlock()

	metrics.CommandsExecuted.WithLabelValues(done.Type, string(done.Status)).Inc()
	metrics.CommandLatency.WithLabelValues(done.Type).Observe(elapsed.Seconds())

	if execErr != nil {
		o.logger.Warn("Command failed", "missionID", missionID, "commandID", commandID, "type", done.Type, "result", done.Result)
	} else {
		o.logger.Info("Command completed", "missionID", missionID, "commandID", commandID, "type", done.Type, "result", done.Result)
	}

	o.notify(core.Event{
		Type:      core.EventCommandExecuted,
		MissionID: missionID,
		Status:    status,
		Timestamp: *done.FinishedAt,
		Command:   &done,
	})
	return done, nil
}
