package core

import (
	"context"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
)

// EventNotifier publishes committed mission events to interested parties.
// In mission control, this is implemented by the MQTT outbound adapter.
type EventNotifier interface {
	Notify(ctx context.Context, event Event) error
}

// Archiver stores the final snapshot of a mission once it reaches a terminal state.
// In mission control, this is implemented by the object storage adapter.
type Archiver interface {
	Archive(ctx context.Context, mission *model.Mission) error
}
