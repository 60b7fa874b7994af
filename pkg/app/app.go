// Package app builds cobra commands whose options come from flags, environment
// variables and a configuration file, in that order of precedence.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"
	"k8s.io/component-base/term"
	"k8s.io/component-base/version/verflag"

	"github.com/autopeer-io/missioncontrol/pkg/log"
)

// RunFunc is the entry point of the command once its options are loaded and valid.
type RunFunc func() error

// App is a cobra command with its options wired to flags and configuration.
type App struct {
	basename    string
	shortDesc   string
	description string

	options  NamedFlagSetOptions
	runFunc  RunFunc
	onChange ConfigChangeFunc
	args     cobra.PositionalArgs
	noConfig bool
	silence  bool
	cfgFile  *string
	viper    *viper.Viper
	cmd      *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithOptions sets the options the command loads and validates.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function run after the options are validated.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithNoConfig disables the --config flag and environment binding.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithSilence suppresses cobra's usage and error output.
func WithSilence() Option {
	return func(a *App) { a.silence = true }
}

// WithConfigChangeFunc watches the configuration file and calls fn after each change.
func WithConfigChangeFunc(fn ConfigChangeFunc) Option {
	return func(a *App) { a.onChange = fn }
}

// NewApp creates a new application instance based on the given application name,
// short description, and options.
func NewApp(basename, shortDesc string, opts ...Option) *App {
	a := &App{
		basename:  basename,
		shortDesc: shortDesc,
	}
	for _, o := range opts {
		o(a)
	}

	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: a.silence,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		a.cfgFile = addConfigFlag(a.basename, fss.FlagSet("global"))
	}
	verflag.AddFlags(fss.FlagSet("global"))
	globalflag.AddGlobalFlags(fss.FlagSet("global"), cmd.Name())

	for _, f := range fss.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cliflag.SetUsageAndHelpFunc(cmd, fss, cols)

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}
	a.cmd = cmd
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Viper returns the configuration source of the last run. It is nil before the command runs.
func (a *App) Viper() *viper.Viper {
	return a.viper
}

// Run launches the application and exits the process on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	verflag.PrintAndExitIfRequested()

	if a.options != nil {
		if err := a.loadOptions(cmd); err != nil {
			return err
		}
		if err := a.options.Complete(); err != nil {
			return err
		}
		if err := a.options.Validate(); err != nil {
			return err
		}
	}

	if a.onChange != nil && a.viper != nil {
		watchConfig(a.viper, a.onChange)
	}

	return a.runFunc()
}

// loadOptions merges flags, environment and the configuration file into the options.
func (a *App) loadOptions(cmd *cobra.Command) error {
	if a.noConfig {
		return nil
	}

	v, err := newViper(a.basename, *a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := v.Unmarshal(a.options); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	a.viper = v

	if used := v.ConfigFileUsed(); used != "" {
		log.Info("Loaded configuration file", "file", used)
	}
	return nil
}
