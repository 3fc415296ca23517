package mqtt

import (
	"fmt"

	"lid-agent/internal/config"
	"lid-agent/internal/power"
)

// Sensor names
const (
	SensorLid     = "lid_state"
	SensorDisplay = "display_state"
)

var eventStates = map[power.Event]string{
	power.LidClosed:      "closed",
	power.LidOpened:      "open",
	power.LidUnknown:     "unknown",
	power.DisplayOff:     "off",
	power.DisplayOn:      "on",
	power.DisplayDimmed:  "dimmed",
	power.DisplayUnknown: "unknown",
}

// StateOf maps a power event to the sensor it updates and the value to publish.
func StateOf(e power.Event) (sensor, value string, ok bool) {
	value, ok = eventStates[e]
	if !ok {
		return "", "", false
	}
	switch e.Class() {
	case power.ClassLidSwitch:
		return SensorLid, value, true
	case power.ClassConsoleDisplay:
		return SensorDisplay, value, true
	}
	return "", "", false
}

// Topics holds the pre-computed topic strings for one device.
type Topics struct {
	device       string
	availability string
	sensors      map[string]string
}

func NewTopics(device string) Topics {
	t := Topics{
		device:       device,
		availability: fmt.Sprintf("%s/sensor/%s/availability", config.DiscoveryPrefix, device),
		sensors:      make(map[string]string),
	}
	for _, name := range []string{SensorLid, SensorDisplay} {
		t.sensors[name] = fmt.Sprintf("%s/sensor/%s/%s/state", config.DiscoveryPrefix, device, name)
	}
	return t
}

func (t Topics) Availability() string {
	return t.availability
}

func (t Topics) Sensor(name string) string {
	if topic, ok := t.sensors[name]; ok {
		return topic
	}
	// Fallback for unknown sensors
	return fmt.Sprintf("%s/sensor/%s/%s/state", config.DiscoveryPrefix, t.device, name)
}

func (t Topics) Discovery(component, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", config.DiscoveryPrefix, component, t.device, name)
}
