package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileName is the user config file looked up next to the executable.
const FileName = "userConfig.json"

// UserConfig represents the user configuration file structure
type UserConfig struct {
	DeviceName    string `json:"device_name"`
	Notifications struct {
		LidSwitch    *bool `json:"lid_switch"`
		DisplayState *bool `json:"display_state"`
	} `json:"notifications"`
	Log  LogConfig `json:"log"`
	MQTT struct {
		Enabled  bool   `json:"enabled"`
		Broker   string `json:"broker"`
		User     string `json:"user"`
		Pass     string `json:"pass"`
		ClientID string `json:"client_id"`
	} `json:"mqtt"`
}

// LogConfig controls the logrus setup.
type LogConfig struct {
	Level      string `json:"level"`
	Formatter  string `json:"formatter"`
	File       string `json:"file"`
	MaxSize    int    `json:"max_size"`
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"`
	Stdout     *bool  `json:"stdout"`
}

// HA MQTT Discovery prefix (constant, not configurable)
const DiscoveryPrefix = "homeassistant"

// DefaultPath returns userConfig.json next to the running executable.
func DefaultPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, "couldn't get executable path")
	}
	return filepath.Join(filepath.Dir(exe), FileName), nil
}

// Load reads, validates and fills defaults for the config at path.
func Load(path string) (*UserConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%s not found - copy userConfig.example.json next to the executable", path)
		}
		return nil, errors.Wrapf(err, "couldn't read %s", path)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "couldn't parse %s", path)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *UserConfig) validate() error {
	if c.DeviceName == "" || c.DeviceName == "my-pc" {
		return errors.Errorf("please set device_name in %s (currently: %q)", FileName, c.DeviceName)
	}
	if !enabled(c.Notifications.LidSwitch) && !enabled(c.Notifications.DisplayState) {
		return errors.New("at least one of notifications.lid_switch and notifications.display_state must be enabled")
	}
	return nil
}

func (c *UserConfig) setDefaults() {
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://homeassistant.local:1883"
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "lid-agent-" + c.DeviceName
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Formatter == "" {
		c.Log.Formatter = "text"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 10
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 28
	}
}

// enabled treats a missing switch as on.
func enabled(b *bool) bool {
	return b == nil || *b
}

// DeviceID is the device name made safe for MQTT unique IDs.
func (c *UserConfig) DeviceID() string {
	return strings.ReplaceAll(c.DeviceName, "-", "_")
}

// LidSwitchEnabled reports whether lid switch notifications are wanted.
func (c *UserConfig) LidSwitchEnabled() bool {
	return enabled(c.Notifications.LidSwitch)
}

// DisplayStateEnabled reports whether console display notifications are wanted.
func (c *UserConfig) DisplayStateEnabled() bool {
	return enabled(c.Notifications.DisplayState)
}

// LogStdout reports whether logs also go to stdout.
func (c LogConfig) LogStdout() bool {
	return enabled(c.Stdout)
}
