package model

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCommandLifecycle(t *testing.T) {
	ctx := context.Background()
	end := t0.Add(time.Second)

	t.Run("success", func(t *testing.T) {
		c := NewCommand("cmd_0001", "ignition", nil, t0)
		if err := c.Begin(ctx); err != nil {
			t.Fatal(err)
		}
		if c.Status != CommandExecuting || c.Result != "" {
			t.Fatalf("unexpected executing command: %+v", c)
		}
		if err := c.Finish(ctx, "Engine ignited successfully", nil, end); err != nil {
			t.Fatal(err)
		}
		if c.Status != CommandCompleted || c.Result != "Engine ignited successfully" {
			t.Errorf("unexpected completed command: %+v", c)
		}
		if c.FinishedAt == nil || !c.FinishedAt.Equal(end) {
			t.Errorf("finished at = %v", c.FinishedAt)
		}
	})

	t.Run("failure", func(t *testing.T) {
		c := NewCommand("cmd_0001", "adjust_course", nil, t0)
		_ = c.Begin(ctx)
		if err := c.Finish(ctx, "", errors.New("missing heading"), end); err != nil {
			t.Fatal(err)
		}
		if c.Status != CommandFailed || c.Result != "missing heading" {
			t.Errorf("unexpected failed command: %+v", c)
		}
	})

	t.Run("no re-execution", func(t *testing.T) {
		c := NewCommand("cmd_0001", "ignition", nil, t0)
		_ = c.Begin(ctx)
		_ = c.Finish(ctx, "done", nil, end)

		err := c.Begin(ctx)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
		if c.Status != CommandCompleted || c.Result != "done" {
			t.Errorf("terminal command mutated: %+v", c)
		}
	})

	t.Run("finish without begin", func(t *testing.T) {
		c := NewCommand("cmd_0001", "ignition", nil, t0)
		if err := c.Finish(ctx, "done", nil, end); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("err = %v, want ErrInvalidTransition", err)
		}
		if c.Status != CommandPending || c.Result != "" || c.FinishedAt != nil {
			t.Errorf("pending command mutated: %+v", c)
		}
	})
}

func TestCommandID(t *testing.T) {
	if got := CommandID(1); got != "cmd_0001" {
		t.Errorf("CommandID(1) = %q", got)
	}
	if got := CommandID(12345); got != "cmd_12345" {
		t.Errorf("CommandID(12345) = %q", got)
	}
}
