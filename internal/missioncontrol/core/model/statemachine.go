package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"
	"k8s.io/utils/ptr"

	fsmutil "github.com/autopeer-io/missioncontrol/internal/pkg/util/fsm"
)

// Mission events.
const (
	// MissionEventStart moves a planned mission to active.
	MissionEventStart = "start"
	// MissionEventAbort ends an active mission as aborted.
	MissionEventAbort = "abort"
	// MissionEventComplete ends an active mission as completed.
	MissionEventComplete = "complete"
	// MissionEventFail ends an active mission as failed.
	MissionEventFail = "fail"
)

// Command events.
const (
	CommandEventExecute = "execute"
	CommandEventSucceed = "succeed"
	CommandEventFail    = "fail"
)

var errAlreadySet = errors.New("timestamp already set")

// missionMachine drives a Mission through its lifecycle.
// It is rebuilt from Mission.Status for every transition and never outlives the call.
type missionMachine struct {
	*fsm.FSM

	mission *Mission
	now     time.Time
}

func newMissionMachine(m *Mission, now time.Time) *missionMachine {
	mm := &missionMachine{mission: m, now: now}

	active := string(MissionActive)
	events := fsm.Events{
		{Name: MissionEventStart, Src: []string{string(MissionPlanned)}, Dst: active},
		{Name: MissionEventAbort, Src: []string{active}, Dst: string(MissionAborted)},
		{Name: MissionEventComplete, Src: []string{active}, Dst: string(MissionCompleted)},
		{Name: MissionEventFail, Src: []string{active}, Dst: string(MissionFailed)},
	}

	callbacks := fsm.Callbacks{
		// Guards
		"before_" + MissionEventStart:    fsmutil.WrapGuard(mm.guardNotStarted),
		"before_" + MissionEventAbort:    fsmutil.WrapGuard(mm.guardNotEnded),
		"before_" + MissionEventComplete: fsmutil.WrapGuard(mm.guardNotEnded),
		"before_" + MissionEventFail:     fsmutil.WrapGuard(mm.guardNotEnded),

		// Side effects
		"enter_" + active:                   fsmutil.WrapEvent(mm.actionEnterActive),
		"enter_" + string(MissionCompleted): fsmutil.WrapEvent(mm.actionEnterTerminal),
		"enter_" + string(MissionAborted):   fsmutil.WrapEvent(mm.actionEnterTerminal),
		"enter_" + string(MissionFailed):    fsmutil.WrapEvent(mm.actionEnterTerminal),
	}

	mm.FSM = fsm.NewFSM(string(m.Status), events, callbacks)
	return mm
}

func (mm *missionMachine) guardNotStarted(_ context.Context, _ *fsm.Event) error {
	if mm.mission.StartTime != nil {
		return fmt.Errorf("start time: %w", errAlreadySet)
	}
	return nil
}

func (mm *missionMachine) guardNotEnded(_ context.Context, _ *fsm.Event) error {
	if mm.mission.EndTime != nil {
		return fmt.Errorf("end time: %w", errAlreadySet)
	}
	return nil
}

func (mm *missionMachine) actionEnterActive(_ context.Context, e *fsm.Event) error {
	mm.mission.Status = MissionStatus(e.Dst)
	mm.mission.StartTime = ptr.To(mm.now)
	return nil
}

func (mm *missionMachine) actionEnterTerminal(_ context.Context, e *fsm.Event) error {
	mm.mission.Status = MissionStatus(e.Dst)
	mm.mission.EndTime = ptr.To(mm.now)
	return nil
}

// commandMachine drives a Command from pending through executing to a terminal state.
type commandMachine struct {
	*fsm.FSM

	cmd *Command
	now time.Time
}

func newCommandMachine(c *Command, now time.Time) *commandMachine {
	cm := &commandMachine{cmd: c, now: now}

	executing := string(CommandExecuting)
	events := fsm.Events{
		{Name: CommandEventExecute, Src: []string{string(CommandPending)}, Dst: executing},
		{Name: CommandEventSucceed, Src: []string{executing}, Dst: string(CommandCompleted)},
		{Name: CommandEventFail, Src: []string{executing}, Dst: string(CommandFailed)},
	}

	callbacks := fsm.Callbacks{
		"enter_" + executing:                fsmutil.WrapEvent(cm.actionEnterExecuting),
		"enter_" + string(CommandCompleted): fsmutil.WrapEvent(cm.actionEnterTerminal),
		"enter_" + string(CommandFailed):    fsmutil.WrapEvent(cm.actionEnterTerminal),
	}

	cm.FSM = fsm.NewFSM(string(c.Status), events, callbacks)
	return cm
}

func (cm *commandMachine) actionEnterExecuting(_ context.Context, e *fsm.Event) error {
	cm.cmd.Status = CommandStatus(e.Dst)
	return nil
}

// actionEnterTerminal expects the result string as the first event argument.
func (cm *commandMachine) actionEnterTerminal(_ context.Context, e *fsm.Event) error {
	cm.cmd.Status = CommandStatus(e.Dst)
	if len(e.Args) > 0 {
		if s, ok := e.Args[0].(string); ok {
			cm.cmd.Result = s
		}
	}
	cm.cmd.FinishedAt = ptr.To(cm.now)
	return nil
}
