package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cliflag "k8s.io/component-base/cli/flag"
)

type serverOptions struct {
	Addr    string        `mapstructure:"addr"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type testOptions struct {
	Server *serverOptions `mapstructure:"server"`
	Rules  []string       `mapstructure:"rules"`

	completed bool
}

func newTestOptions() *testOptions {
	return &testOptions{Server: &serverOptions{Addr: ":8080", Timeout: time.Second}}
}

func (o *testOptions) Flags() cliflag.NamedFlagSets {
	fss := cliflag.NamedFlagSets{}
	fs := fss.FlagSet("server")
	fs.StringVar(&o.Server.Addr, "server.addr", o.Server.Addr, "address")
	fs.DurationVar(&o.Server.Timeout, "server.timeout", o.Server.Timeout, "timeout")
	return fss
}

func (o *testOptions) Complete() error {
	o.completed = true
	return nil
}

func (o *testOptions) Validate() error { return nil }

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func runApp(t *testing.T, opts *testOptions, args ...string) *App {
	t.Helper()
	ran := false
	a := NewApp("mission-test", "test",
		WithOptions(opts),
		WithDefaultValidArgs(),
		WithSilence(),
		WithRunFunc(func() error {
			ran = true
			return nil
		}),
	)
	a.Command().SetArgs(args)
	require.NoError(t, a.Command().Execute())
	require.True(t, ran)
	return a
}

func TestConfigFileIsLoaded(t *testing.T) {
	cfg := writeConfig(t, "server:\n  addr: 127.0.0.1:9000\n  timeout: 5s\nrules: [a, b]\n")
	opts := newTestOptions()

	a := runApp(t, opts, "--config", cfg)

	assert.True(t, opts.completed)
	assert.Equal(t, "127.0.0.1:9000", opts.Server.Addr)
	assert.Equal(t, 5*time.Second, opts.Server.Timeout)
	assert.Equal(t, []string{"a", "b"}, opts.Rules)
	assert.Equal(t, cfg, a.Viper().ConfigFileUsed())
}

func TestPrecedence(t *testing.T) {
	cfg := writeConfig(t, "server:\n  addr: 127.0.0.1:9000\n  timeout: 5s\n")
	t.Setenv("MISSIONTEST_SERVER_TIMEOUT", "7s")
	opts := newTestOptions()

	runApp(t, opts, "--config", cfg, "--server.addr", "127.0.0.1:9999")

	assert.Equal(t, "127.0.0.1:9999", opts.Server.Addr, "flag wins over file")
	assert.Equal(t, 7*time.Second, opts.Server.Timeout, "environment wins over file")
}

func TestMissingExplicitConfigFails(t *testing.T) {
	a := NewApp("mission-test", "test",
		WithOptions(newTestOptions()),
		WithSilence(),
		WithRunFunc(func() error { return nil }),
	)
	a.Command().SetArgs([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
	require.Error(t, a.Command().Execute())
}

func TestDefaultValidArgs(t *testing.T) {
	a := NewApp("mission-test", "test",
		WithOptions(newTestOptions()),
		WithDefaultValidArgs(),
		WithSilence(),
		WithRunFunc(func() error { return nil }),
	)
	a.Command().SetArgs([]string{"unexpected"})
	require.Error(t, a.Command().Execute())
}

func TestEnvPrefix(t *testing.T) {
	assert.Equal(t, "MISSIONCONTROL", envPrefix("mission-control"))
	assert.Equal(t, "MISSIONTEST", envPrefix("mission_test"))
}

func TestFlagsRegistered(t *testing.T) {
	a := NewApp("mission-test", "test", WithOptions(newTestOptions()), WithRunFunc(func() error { return nil }))
	for _, name := range []string{"config", "version", "help", "server.addr", "server.timeout"} {
		assert.NotNil(t, a.Command().Flags().Lookup(name), name)
	}

	noCfg := NewApp("mission-test", "test", WithNoConfig(), WithOptions(newTestOptions()))
	assert.Nil(t, noCfg.Command().Flags().Lookup("config"))
}
