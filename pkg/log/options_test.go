package log

import (
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestOptionsValidate(t *testing.T) {
	assert.Empty(t, NewOptions().Validate())

	o := NewOptions()
	o.Level = "loud"
	o.Format = "xml"
	o.CallerSkip = -1
	assert.Len(t, o.Validate(), 3)
}

func TestOptionsFlags(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)

	require.NoError(t, fs.Parse([]string{"--log.level=debug", "--log.format=json", "--log.disable-stacktrace"}))
	assert.Equal(t, "debug", o.Level)
	assert.Equal(t, "json", o.Format)
	assert.True(t, o.DisableStacktrace)
}

func TestSetLevelOnDerivedLoggers(t *testing.T) {
	o := NewOptions()
	o.Format = "json"
	o.OutputPaths = []string{filepath.Join(t.TempDir(), "out.log")}

	root := NewLogger(o).(*zapLogger)
	child := root.WithName("orchestrator").WithValues("mission", "M1").(*zapLogger)
	assert.False(t, child.core.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, root.setLevel("debug"))
	assert.True(t, child.core.Core().Enabled(zapcore.DebugLevel))

	assert.Error(t, root.setLevel("loud"))
	assert.Error(t, NewNopLogger().(*zapLogger).setLevel("debug"))
}
