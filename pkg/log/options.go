// Copyright 2025 The Autopeer Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

var formats = []string{"console", "json"}

// Options configures the process logger. Level can be changed at runtime with SetLevel.
type Options struct {
	Name   string `json:"name,omitempty" mapstructure:"name"`
	Level  string `json:"level,omitempty" mapstructure:"level"`
	Format string `json:"format,omitempty" mapstructure:"format"`

	// EnableColor only applies to the console format.
	EnableColor       bool `json:"enable-color,omitempty" mapstructure:"enable-color"`
	DisableCaller     bool `json:"disable-caller,omitempty" mapstructure:"disable-caller"`
	DisableStacktrace bool `json:"disable-stacktrace,omitempty" mapstructure:"disable-stacktrace"`

	// CallerSkip is 2 for calls through the package-level helpers.
	CallerSkip int `json:"caller-skip,omitempty" mapstructure:"caller-skip"`

	OutputPaths      []string `json:"output-paths,omitempty" mapstructure:"output-paths"`
	ErrorOutputPaths []string `json:"error-output-paths,omitempty" mapstructure:"error-output-paths"`
}

func NewOptions() *Options {
	return &Options{
		Level:            "info",
		Format:           "console",
		EnableColor:      true,
		CallerSkip:       2,
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

func (o *Options) Validate() []error {
	var errs []error

	if _, err := parseLevel(o.Level); err != nil {
		errs = append(errs, err)
	}
	if !slices.Contains(formats, o.Format) {
		errs = append(errs, fmt.Errorf("invalid log format %q, must be one of %v", o.Format, formats))
	}
	if o.CallerSkip < 0 {
		errs = append(errs, fmt.Errorf("log caller skip must not be negative, got %d", o.CallerSkip))
	}

	return errs
}

func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Name, "log.name", o.Name, "Name added to every log entry.")
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum level to output: debug, info, warn or error.")
	fs.StringVar(&o.Format, "log.format", o.Format, "Output format: console or json.")
	fs.BoolVar(&o.EnableColor, "log.enable-color", o.EnableColor, "Colorize levels in the console format.")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Omit the caller file and line.")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Omit stack traces on error entries.")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Where to write logs, e.g. stdout or /var/log/mission-control.log.")
	fs.StringSliceVar(&o.ErrorOutputPaths, "log.error-output-paths", o.ErrorOutputPaths, "Where to write internal logger errors.")
}

func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return lvl, nil
}
