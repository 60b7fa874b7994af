// Package executor maps command types to the behavior run when a command executes.
package executor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
)

// Built-in command types.
const (
	TypeIgnition      = "ignition"
	TypeAdjustCourse  = "adjust_course"
	TypeCollectSample = "collect_sample"
)

// Func runs a command. A non-nil error marks the command failed; its message becomes the result.
type Func func(ctx context.Context, params map[string]any) (string, error)

// Table is a registry of executors keyed by command type.
// Unregistered types fall through to the fallback executor, which always succeeds.
// A Table is safe for concurrent use.
type Table struct {
	mu        sync.RWMutex
	executors map[string]Func
	fallback  Func
}

// NewTable returns a table holding the built-in executors.
func NewTable() *Table {
	return &Table{executors: builtins()}
}

func builtins() map[string]Func {
	return map[string]Func{
		TypeIgnition:      Ignition,
		TypeAdjustCourse:  RequireParam("heading", "Course adjusted to %s"),
		TypeCollectSample: RequireParam("location", "Sample collected at %s"),
	}
}

// Register adds or replaces the executor for commandType.
func (t *Table) Register(commandType string, fn Func) error {
	if commandType == "" {
		return model.Validationf("executor command type is required")
	}
	if fn == nil {
		return model.Validationf("executor for %q is nil", commandType)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.executors[commandType] = fn
	return nil
}

// SetFallback replaces the executor used for unregistered types. nil restores the default.
func (t *Table) SetFallback(fn Func) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = fn
}

// Lookup returns the executor for commandType and whether it was explicitly registered.
func (t *Table) Lookup(commandType string) (Func, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if fn, ok := t.executors[commandType]; ok {
		return fn, true
	}
	if t.fallback != nil {
		return t.fallback, false
	}
	return acknowledge(commandType), false
}

// Types returns the registered command types, sorted.
func (t *Table) Types() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	types := make([]string, 0, len(t.executors))
	for k := range t.executors {
		types = append(types, k)
	}
	sort.Strings(types)
	return types
}

// Execute runs the executor selected by commandType. A panicking executor is reported as an error.
func (t *Table) Execute(ctx context.Context, commandType string, params map[string]any) (result string, err error) {
	fn, _ := t.Lookup(commandType)

	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = fmt.Errorf("executor for %q panicked: %v", commandType, r)
		}
	}()

	return fn(ctx, params)
}

// Ignition succeeds unconditionally.
func Ignition(_ context.Context, _ map[string]any) (string, error) {
	return "Engine ignited successfully", nil
}

// RequireParam returns an executor that needs the string parameter key and
// formats it into format on success.
func RequireParam(key, format string) Func {
	return func(_ context.Context, params map[string]any) (string, error) {
		v, err := StringParam(params, key)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf(format, v), nil
	}
}

// StringParam returns params[key] as a string.
func StringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return "", model.Validationf("missing required parameter %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", model.Validationf("parameter %q must be a string, got %T", key, raw)
	}
	return s, nil
}

func acknowledge(commandType string) Func {
	return func(context.Context, map[string]any) (string, error) {
		return fmt.Sprintf("Command %s acknowledged", commandType), nil
	}
}
