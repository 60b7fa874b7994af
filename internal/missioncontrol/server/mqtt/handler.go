package mqtt

import (
	"context"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/orchestrator"
)

// CommandMessage is the payload of {root}/mission/{id}/command.
type CommandMessage struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`

	// Execute runs the command right after queuing it.
	Execute bool `json:"execute,omitempty"`
}

func (s *Server) handleTelemetry(ctx context.Context, missionID string, reading *model.TelemetryReading) error {
	return s.orch.AddTelemetry(ctx, missionID, *reading)
}

func (s *Server) handleCommand(ctx context.Context, missionID string, msg *CommandMessage) error {
	id, err := s.orch.SendCommand(ctx, missionID, orchestrator.SendCommandRequest{
		Type:       msg.Type,
		Parameters: msg.Parameters,
	})
	if err != nil {
		return err
	}
	if !msg.Execute {
		return nil
	}

	_, err = s.orch.ExecuteCommand(ctx, missionID, id)
	return err
}
