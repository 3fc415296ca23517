package logging

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lid-agent/internal/config"
)

func TestInit(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)

	file := filepath.Join(t.TempDir(), "lid-agent.log")
	no := false
	require.NoError(t, Init(config.LogConfig{
		Level:     "debug",
		Formatter: "json",
		File:      file,
		MaxSize:   1,
		Stdout:    &no,
	}))
	defer Close()
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	log.Info("lid closed")
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"lid closed"`)
}

func TestSetLevel(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.Error(t, SetLevel("loud"))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
}

func TestInitLogsLevelChangeToNewOutput(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	defer log.SetLevel(log.InfoLevel)

	log.SetLevel(log.WarnLevel)
	dir := t.TempDir()
	no := false

	first := filepath.Join(dir, "first.log")
	require.NoError(t, Init(config.LogConfig{Level: "debug", File: first, MaxSize: 1, Stdout: &no}))

	// a second Init closes the first file and keeps going
	second := filepath.Join(dir, "second.log")
	require.NoError(t, Init(config.LogConfig{Level: "info", File: second, MaxSize: 1, Stdout: &no}))
	defer Close()

	b, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Log level set to debug")

	b, err = os.ReadFile(second)
	require.NoError(t, err)
	assert.Contains(t, string(b), "Log level set to info")

	assert.Error(t, Init(config.LogConfig{Level: "loud"}))
}
