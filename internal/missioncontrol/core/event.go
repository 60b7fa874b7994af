package core

import (
	"time"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
)

// EventType names a committed change to a mission.
type EventType string

const (
	EventMissionCreated   EventType = "mission.created"
	EventMissionStarted   EventType = "mission.started"
	EventMissionAborted   EventType = "mission.aborted"
	EventMissionCompleted EventType = "mission.completed"
	EventMissionFailed    EventType = "mission.failed"
	EventCommandSent      EventType = "command.sent"
	EventCommandExecuted  EventType = "command.executed"
	EventTelemetryAdded   EventType = "telemetry.added"
)

// Event describes a mutation after it has been applied.
type Event struct {
	Type      EventType           `json:"type"`
	MissionID string              `json:"mission_id"`
	Status    model.MissionStatus `json:"status"`
	Timestamp time.Time           `json:"timestamp"`

	// Command is set for command events.
	Command *model.Command `json:"command,omitempty"`

	// Telemetry is set for telemetry events.
	Telemetry *model.Telemetry `json:"telemetry,omitempty"`
}
