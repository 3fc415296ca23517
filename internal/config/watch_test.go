package config

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `{"device_name": "den", "log": {"level": "info"}}`)

	var (
		mu     sync.Mutex
		levels []string
	)
	w, err := Watch(path, func(cfg *UserConfig) {
		mu.Lock()
		levels = append(levels, cfg.Log.Level)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer w.Stop()

	// invalid edits are skipped
	writeConfig(t, dir, `{"device_name": ""}`)
	writeConfig(t, dir, `{"device_name": "den", "log": {"level": "debug"}}`)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(levels) > 0 && levels[len(levels)-1] == "debug"
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	for _, l := range levels {
		assert.Equal(t, "debug", l)
	}
	mu.Unlock()

	w.Stop()
	w.Stop()
}
