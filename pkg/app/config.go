package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/autopeer-io/missioncontrol/pkg/log"
)

const configFlagName = "config"

// ConfigChangeFunc is invoked after the watched configuration file changed and was re-read.
// v holds the new merged configuration.
type ConfigChangeFunc func(e fsnotify.Event, v *viper.Viper)

func addConfigFlag(basename string, fs *pflag.FlagSet) *string {
	return fs.StringP(configFlagName, "c", "",
		fmt.Sprintf("Read configuration from the specified file; support JSON, TOML, YAML. Defaults to $HOME/.%s/%s.yaml or ./%s.yaml.", basename, basename, basename))
}

// envPrefix derives the environment prefix from the command name: mission-control -> MISSIONCONTROL.
func envPrefix(basename string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", "_", "", ".", "").Replace(basename))
}

// newViper builds the configuration source of the command: flags, then environment
// variables, then the optional file. A missing default file is not an error.
func newViper(basename, cfgFile string, fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, "."+basename))
		}
		v.AddConfigPath(".")
		v.SetConfigName(basename)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix(basename))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration file(%s): %w", cfgFile, err)
		}
		log.Debug("No configuration file found, using flags and environment only")
	}

	return v, nil
}

// watchConfig re-reads the file on every write and hands the result to fn.
func watchConfig(v *viper.Viper, fn ConfigChangeFunc) {
	if v.ConfigFileUsed() == "" {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		log.Info("Configuration file changed", "file", e.Name, "op", e.Op.String())
		fn(e, v)
	})
	v.WatchConfig()
}
