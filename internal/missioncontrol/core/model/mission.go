package model

import (
	"context"
	"time"
)

// MissionStatus is the lifecycle phase of a mission.
type MissionStatus string

const (
	MissionPlanned   MissionStatus = "planned"
	MissionActive    MissionStatus = "active"
	MissionCompleted MissionStatus = "completed"
	MissionAborted   MissionStatus = "aborted"
	MissionFailed    MissionStatus = "failed"
)

// MissionStatuses lists every status in lifecycle order.
var MissionStatuses = []MissionStatus{MissionPlanned, MissionActive, MissionCompleted, MissionAborted, MissionFailed}

// IsTerminal reports whether no transition leaves s.
func (s MissionStatus) IsTerminal() bool {
	return s == MissionCompleted || s == MissionAborted || s == MissionFailed
}

// Mission is the aggregate owning a command log and a telemetry stream.
type Mission struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Status     MissionStatus `json:"status"`
	Objectives []string      `json:"objectives"`

	// StartTime is set once, on planned -> active.
	StartTime *time.Time `json:"start_time"`

	// EndTime is set once, on entry to a terminal state.
	EndTime *time.Time `json:"end_time"`

	// Commands in send order.
	Commands []Command `json:"commands"`

	// Telemetry in recording order.
	Telemetry []Telemetry `json:"telemetry"`
}

// NewMission returns a planned mission.
func NewMission(id, name string, objectives []string) *Mission {
	return &Mission{
		ID:         id,
		Name:       name,
		Status:     MissionPlanned,
		Objectives: append([]string{}, objectives...),
		Commands:   []Command{},
		Telemetry:  []Telemetry{},
	}
}

func (m *Mission) Start(ctx context.Context, now time.Time) error {
	return m.fire(ctx, MissionEventStart, now)
}

func (m *Mission) Abort(ctx context.Context, now time.Time) error {
	return m.fire(ctx, MissionEventAbort, now)
}

func (m *Mission) Complete(ctx context.Context, now time.Time) error {
	return m.fire(ctx, MissionEventComplete, now)
}

func (m *Mission) Fail(ctx context.Context, now time.Time) error {
	return m.fire(ctx, MissionEventFail, now)
}

// Transition fires the named mission event.
func (m *Mission) Transition(ctx context.Context, event string, now time.Time) error {
	return m.fire(ctx, event, now)
}

func (m *Mission) fire(ctx context.Context, event string, now time.Time) error {
	from := m.Status
	if err := newMissionMachine(m, now).Event(ctx, event); err != nil {
		return &TransitionError{Entity: "mission", ID: m.ID, From: string(from), Event: event, Cause: err}
	}
	return nil
}

func (m *Mission) requireActive(operation string) error {
	if m.Status != MissionActive {
		return &TransitionError{Entity: "mission", ID: m.ID, From: string(m.Status), Event: operation}
	}
	return nil
}

// AddCommand appends a pending command and returns its id. The mission must be active.
func (m *Mission) AddCommand(commandType string, params map[string]any, now time.Time) (string, error) {
	if err := m.requireActive("send_command"); err != nil {
		return "", err
	}
	if commandType == "" {
		return "", Validationf("command type is required")
	}

	id := CommandID(len(m.Commands) + 1)
	m.Commands = append(m.Commands, NewCommand(id, commandType, params, now))
	return id, nil
}

// Command returns the command with the given id.
func (m *Mission) Command(id string) (*Command, error) {
	for i := range m.Commands {
		if m.Commands[i].ID == id {
			return &m.Commands[i], nil
		}
	}
	return nil, ErrCommandNotFound
}

// AddTelemetry appends a record built from r. The mission must be active.
func (m *Mission) AddTelemetry(r TelemetryReading, now time.Time) (Telemetry, error) {
	if err := m.requireActive("add_telemetry"); err != nil {
		return Telemetry{}, err
	}

	t, err := NewTelemetry(r, now)
	if err != nil {
		return Telemetry{}, err
	}

	m.Telemetry = append(m.Telemetry, t)
	return t, nil
}

// LatestTelemetry returns the most recent record, or nil.
func (m *Mission) LatestTelemetry() *Telemetry {
	if len(m.Telemetry) == 0 {
		return nil
	}
	t := m.Telemetry[len(m.Telemetry)-1]
	return &t
}

// CommandCounts tallies commands by status.
func (m *Mission) CommandCounts() map[CommandStatus]int {
	counts := make(map[CommandStatus]int, 4)
	for i := range m.Commands {
		counts[m.Commands[i].Status]++
	}
	return counts
}

// DeepCopy returns a copy sharing no mutable state with m.
func (m *Mission) DeepCopy() *Mission {
	if m == nil {
		return nil
	}

	out := *m
	out.Objectives = append([]string{}, m.Objectives...)
	out.StartTime = copyTime(m.StartTime)
	out.EndTime = copyTime(m.EndTime)

	out.Commands = make([]Command, len(m.Commands))
	for i := range m.Commands {
		out.Commands[i] = m.Commands[i].DeepCopy()
	}

	out.Telemetry = append([]Telemetry{}, m.Telemetry...)
	return &out
}

// MissionSummary is the registry-listing view of a mission.
type MissionSummary struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Status         MissionStatus `json:"status"`
	StartTime      *time.Time    `json:"start_time"`
	EndTime        *time.Time    `json:"end_time"`
	CommandsCount  int           `json:"commands_count"`
	TelemetryCount int           `json:"telemetry_count"`
}

func (m *Mission) Summary() MissionSummary {
	return MissionSummary{
		ID:             m.ID,
		Name:           m.Name,
		Status:         m.Status,
		StartTime:      copyTime(m.StartTime),
		EndTime:        copyTime(m.EndTime),
		CommandsCount:  len(m.Commands),
		TelemetryCount: len(m.Telemetry),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
