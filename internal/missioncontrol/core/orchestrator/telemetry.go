package orchestrator

import (
	"context"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/pkg/metrics"
)

// AddTelemetry records a reading against an active mission.
func (o *Orchestrator) AddTelemetry(ctx context.Context, missionID string, reading model.TelemetryReading) error {
	e, err := o.lookup(missionID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	rec, err := e.mission.AddTelemetry(reading, o.clock.Now())
	status := e.mission.Status
	e.mu.Unlock()
	if err != nil {
		return err
	}

	metrics.TelemetryRecords.Inc()
	o.logger.Debug("Telemetry recorded", "missionID", missionID,
		"altitude", rec.Altitude, "velocity", rec.Velocity, "fuelLevel", rec.FuelLevel, "health", rec.SystemHealth)
	o.notify(core.Event{
		Type:      core.EventTelemetryAdded,
		MissionID: missionID,
		Status:    status,
		Timestamp: rec.Timestamp,
		Telemetry: &rec,
	})
	return nil
}
