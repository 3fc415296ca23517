package mqtt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lid-agent/internal/config"
)

func TestConnectBrokerDown(t *testing.T) {
	cfg := &config.UserConfig{DeviceName: "den"}
	cfg.MQTT.Enabled = true
	cfg.MQTT.Broker = "tcp://127.0.0.1:1"
	cfg.MQTT.ClientID = "lid-agent-test"

	c := NewClient(cfg)

	done := make(chan error, 1)
	go func() { done <- c.Connect() }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "127.0.0.1:1")
	case <-time.After(connectTimeout + 3*time.Second):
		t.Fatal("Connect blocked with the broker down")
	}
	assert.False(t, c.IsConnected())
}
