package options

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MissionOptions)(nil)

// ExecutorRule declares a command executor in the configuration file.
//
//	mission:
//	  executors:
//	    - type: deploy_rover
//	      required: [site]
//	      message: "Rover deployed at {site}"
type ExecutorRule struct {
	Type     string   `json:"type" mapstructure:"type"`
	Required []string `json:"required" mapstructure:"required"`
	Message  string   `json:"message" mapstructure:"message"`
}

// MissionOptions configures the orchestrator itself.
type MissionOptions struct {
	// PublishEvents sends every committed mission change to the MQTT events topic.
	// Has no effect unless MQTT is enabled.
	PublishEvents bool `json:"publish-events" mapstructure:"publish-events"`

	// Executors adds or overrides command executors. Only settable from the config file;
	// changes are applied without a restart.
	Executors []ExecutorRule `json:"executors" mapstructure:"executors"`
}

// NewMissionOptions creates a MissionOptions object with default parameters.
func NewMissionOptions() *MissionOptions {
	return &MissionOptions{
		PublishEvents: true,
	}
}

// Validate checks every executor rule has a unique type.
func (o *MissionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}
	seen := make(map[string]bool, len(o.Executors))
	for i, r := range o.Executors {
		if strings.TrimSpace(r.Type) == "" {
			errors = append(errors, fmt.Errorf("mission.executors[%d]: type is required", i))
			continue
		}
		if seen[r.Type] {
			errors = append(errors, fmt.Errorf("mission.executors[%d]: duplicate type %q", i, r.Type))
		}
		seen[r.Type] = true
	}

	return errors
}

// AddFlags adds flags for MissionOptions to the specified FlagSet.
func (o *MissionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.PublishEvents, "mission.publish-events", o.PublishEvents, "Publish committed mission events over MQTT.")
}
