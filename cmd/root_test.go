package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonandersen/tradedesk/internal/config"
)

func TestRootCmd_JSONFlagExists(t *testing.T) {
	// Reset the flag for testing
	jsonOutput = false

	flag := rootCmd.PersistentFlags().Lookup("json")

	assert.NotNil(t, flag, "--json flag should exist")
	assert.Equal(t, "false", flag.DefValue)
	assert.Equal(t, "Output in JSON format", flag.Usage)

	short := rootCmd.PersistentFlags().ShorthandLookup("j")
	require.NotNil(t, short, "-j shorthand should exist")
	assert.Equal(t, "json", short.Name)
}

func TestRootCmd_GlobalFlags(t *testing.T) {
	for _, name := range []string{"config", "log-file", "debug"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "--%s flag should exist", name)
	}
}

func TestRootCmd_GetJSONMode(t *testing.T) {
	jsonOutput = false
	assert.False(t, GetJSONMode())

	jsonOutput = true
	assert.True(t, GetJSONMode())

	jsonOutput = false
}

func TestRootCmd_Version(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	_ = rootCmd.Execute()

	assert.Contains(t, out.String(), "tradedesk version")
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ui", "configure", "trade", "quotes", "serve", "version"} {
		assert.True(t, names[want], "%s command should be registered", want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Cleanup(func() { configFile = "" })

	configFile = ""
	assert.Equal(t, config.ConfigPath(), configPath())

	configFile = "/tmp/custom.yaml"
	assert.Equal(t, "/tmp/custom.yaml", configPath())
}

func TestNewFileLogger_PathPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() { logFile = "" })

	cfg := config.DefaultConfig()
	cfg.LogFile = filepath.Join(dir, "from-config.log")

	logFile = ""
	logger, err := newFileLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, cfg.LogFile)

	logFile = filepath.Join(dir, "from-flag.log")
	logger, err = newFileLogger(cfg)
	require.NoError(t, err)
	logger.Info("hello")
	require.NoError(t, logger.Sync())
	assert.FileExists(t, logFile)
}
