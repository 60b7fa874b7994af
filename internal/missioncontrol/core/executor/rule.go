package executor

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/autopeer-io/missioncontrol/internal/missioncontrol/core/model"
)

// Rule declares an executor in configuration: the command succeeds when every
// Required parameter is present as a string, and reports Message with each
// {param} placeholder replaced by the parameter value.
type Rule struct {
	Type     string   `json:"type" mapstructure:"type"`
	Required []string `json:"required,omitempty" mapstructure:"required"`
	Message  string   `json:"message,omitempty" mapstructure:"message"`
}

// Validate checks the rule is usable.
func (r Rule) Validate() error {
	if r.Type == "" {
		return model.Validationf("executor rule type is required")
	}
	for _, p := range r.Required {
		if strings.TrimSpace(p) == "" {
			return model.Validationf("executor rule %q has an empty required parameter", r.Type)
		}
	}
	return nil
}

// Func builds the executor described by r.
func (r Rule) Func() Func {
	required := append([]string(nil), r.Required...)
	message := r.Message
	if message == "" {
		message = fmt.Sprintf("Command %s acknowledged", r.Type)
	}

	return func(_ context.Context, params map[string]any) (string, error) {
		for _, key := range required {
			if _, err := StringParam(params, key); err != nil {
				return "", err
			}
		}
		return expand(message, params), nil
	}
}

// expand replaces {param} placeholders in message. When placeholders overlap the
// longest one wins, so the result does not depend on map order.
func expand(message string, params map[string]any) string {
	keys := slices.SortedFunc(maps.Keys(params), func(a, b string) int {
		if n := cmp.Compare(len(b), len(a)); n != 0 {
			return n
		}
		return strings.Compare(a, b)
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", fmt.Sprint(params[k]))
	}
	return strings.NewReplacer(pairs...).Replace(message)
}

// Apply registers every rule on t. Invalid rules are skipped and reported together.
func (t *Table) Apply(rules []Rule) error {
	var errs []error
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := t.Register(r.Type, r.Func()); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

// Reset replaces every executor with the built-ins plus rules, in one step.
// Executors added with Register are dropped. Invalid rules are skipped and reported together.
func (t *Table) Reset(rules []Rule) error {
	next := builtins()
	var errs []error
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		next[r.Type] = r.Func()
	}

	t.mu.Lock()
	t.executors = next
	t.mu.Unlock()
	return utilerrors.NewAggregate(errs)
}
