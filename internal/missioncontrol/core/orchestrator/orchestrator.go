// Package orchestrator owns the mission registry and is the single entry point
// for every mission, command and telemetry operation.
package orchestrator

import (
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/executor"
	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
	"github.com/autopeer-io/missioncontrol/pkg/log"
)

// Orchestrator is the mission registry.
//
// Lock order: Orchestrator.mu, then entry.mu, then Orchestrator.activeMu.
// Every mutation of a mission holds that mission's write lock for its whole duration,
// so no partially applied change is ever observable. Side effects (notifications,
// archiving) are queued after the lock is released and delivered by Start, so no
// operation waits on external I/O.
type Orchestrator struct {
	mu       sync.RWMutex
	missions map[string]*entry
	order    []string

	activeMu sync.Mutex
	active   string

	executors *executor.Table
	clock     clock.PassiveClock
	notifier  core.EventNotifier
	archiver  core.Archiver
	logger    log.Logger

	effects         chan effect
	effectQueueSize int
	effectTimeout   time.Duration
}

type entry struct {
	mu      sync.RWMutex
	mission *model.Mission
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithExecutors sets the command executor table. Defaults to executor.NewTable().
func WithExecutors(t *executor.Table) Option {
	return func(o *Orchestrator) { o.executors = t }
}

// WithClock sets the clock used to stamp transitions, commands and telemetry.
func WithClock(c clock.PassiveClock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithNotifier sets the sink for committed mission events.
func WithNotifier(n core.EventNotifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithArchiver sets the store receiving missions that reach a terminal state.
func WithArchiver(a core.Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithLogger sets the logger. Defaults to the global logger named "orchestrator".
func WithLogger(l log.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an empty registry.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		missions:        make(map[string]*entry),
		effectQueueSize: defaultEffectQueueSize,
		effectTimeout:   defaultEffectTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.executors == nil {
		o.executors = executor.NewTable()
	}
	if o.clock == nil {
		o.clock = clock.RealClock{}
	}
	if o.logger == nil {
		o.logger = log.WithName("orchestrator")
	}
	o.effects = make(chan effect, o.effectQueueSize)
	return o
}

// Executors returns the executor table so callers can register command types.
func (o *Orchestrator) Executors() *executor.Table {
	return o.executors
}

func (o *Orchestrator) lookup(id string) (*entry, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	e, ok := o.missions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrMissionNotFound, id)
	}
	return e, nil
}

// trackActive must be called with the mission's write lock held.
func (o *Orchestrator) trackActive(id string, status model.MissionStatus) {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()

	switch {
	case status == model.MissionActive:
		o.active = id
	case status.IsTerminal() && o.active == id:
		o.active = ""
	}
}

// ActiveMission returns the most recently started mission while it is still active.
func (o *Orchestrator) ActiveMission() (string, bool) {
	o.activeMu.Lock()
	defer o.activeMu.Unlock()
	return o.active, o.active != ""
}
