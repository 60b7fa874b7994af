package model

import (
	"context"
	"fmt"
	"time"
)

// CommandStatus is the lifecycle phase of a command.
type CommandStatus string

const (
	CommandPending   CommandStatus = "pending"
	CommandExecuting CommandStatus = "executing"
	CommandCompleted CommandStatus = "completed"
	CommandFailed    CommandStatus = "failed"
)

// IsTerminal reports whether no further transition is possible.
func (s CommandStatus) IsTerminal() bool {
	return s == CommandCompleted || s == CommandFailed
}

// Command is a unit of work requested against a mission.
type Command struct {
	// ID is unique within the owning mission.
	ID string `json:"id"`

	// Type selects the executor.
	Type string `json:"type"`

	Parameters map[string]any `json:"parameters"`

	Status CommandStatus `json:"status"`

	// Timestamp is the creation instant.
	Timestamp time.Time `json:"timestamp"`

	// Result holds the executor output, or the error description on failure.
	// It is set only on the terminal transition.
	Result string `json:"result,omitempty"`

	// FinishedAt is set together with Result.
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// CommandID formats the id of the seq-th command of a mission (1-based).
func CommandID(seq int) string {
	return fmt.Sprintf("cmd_%04d", seq)
}

// NewCommand returns a pending command. A nil parameter map is replaced by an empty one.
func NewCommand(id, commandType string, params map[string]any, now time.Time) Command {
	if params == nil {
		params = map[string]any{}
	}
	return Command{
		ID:         id,
		Type:       commandType,
		Parameters: copyParams(params),
		Status:     CommandPending,
		Timestamp:  now,
	}
}

// Begin moves the command from pending to executing.
func (c *Command) Begin(ctx context.Context) error {
	return c.fire(ctx, CommandEventExecute, time.Time{})
}

// Finish records the executor outcome and moves the command to completed,
// or to failed when execErr is non-nil.
func (c *Command) Finish(ctx context.Context, output string, execErr error, now time.Time) error {
	if execErr != nil {
		return c.fire(ctx, CommandEventFail, now, execErr.Error())
	}
	return c.fire(ctx, CommandEventSucceed, now, output)
}

func (c *Command) fire(ctx context.Context, event string, now time.Time, args ...any) error {
	from := c.Status
	if err := newCommandMachine(c, now).Event(ctx, event, args...); err != nil {
		return &TransitionError{Entity: "command", ID: c.ID, From: string(from), Event: event, Cause: err}
	}
	return nil
}

// DeepCopy returns a copy sharing no mutable state with c.
func (c Command) DeepCopy() Command {
	out := c
	out.Parameters = copyParams(c.Parameters)
	if c.FinishedAt != nil {
		t := *c.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

func copyParams(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyParams(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
