package mqtt

import (
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/host"
	log "github.com/sirupsen/logrus"

	"lid-agent/internal/config"
	"lid-agent/internal/power"
)

const connectTimeout = 5 * time.Second

type Client struct {
	mqtt.Client
	cfg    *config.UserConfig
	topics Topics
}

// IsConnected returns true if the MQTT client is connected
func (c *Client) IsConnected() bool {
	return c.Client != nil && c.Client.IsConnected()
}

// HADiscoveryPayload for Home Assistant MQTT Discovery
type HADiscoveryPayload struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic,omitempty"`
	AvailabilityTopic string   `json:"availability_topic,omitempty"`
	Device            HADevice `json:"device"`
	Icon              string   `json:"icon,omitempty"`
	DeviceClass       string   `json:"device_class,omitempty"`
}

type HADevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

func NewClient(cfg *config.UserConfig) *Client {
	c := &Client{cfg: cfg, topics: NewTopics(cfg.DeviceName)}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTT.Broker).
		SetUsername(cfg.MQTT.User).
		SetPassword(cfg.MQTT.Pass).
		SetClientID(cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(60 * time.Second).
		SetKeepAlive(30 * time.Second). // Detect dead connections faster
		SetPingTimeout(10 * time.Second).
		SetWriteTimeout(10 * time.Second). // Don't hang forever on writes
		SetCleanSession(false).
		SetWill(c.topics.Availability(), "offline", 1, true).
		SetOnConnectHandler(func(client mqtt.Client) {
			log.Info("MQTT connected")
			c.onConnect()
		}).
		SetConnectionLostHandler(func(client mqtt.Client, err error) {
			log.Warnf("MQTT connection lost: %v (will auto-reconnect)", err)
		}).
		SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
			log.Info("MQTT reconnecting...")
		})

	if cfg.MQTT.User == "" {
		log.Warn("MQTT user/pass not set - connecting without authentication")
	}

	c.Client = mqtt.NewClient(opts)
	return c
}

// Connect waits up to connectTimeout for the first connection. With
// ConnectRetry set the token only completes once a broker answers, so on
// timeout paho keeps retrying in the background.
func (c *Client) Connect() error {
	token := c.Client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return errors.Errorf("no connection to %s after %v", c.cfg.MQTT.Broker, connectTimeout)
	}
	return token.Error()
}

func (c *Client) onConnect() {
	// Publish availability
	c.Publish(c.topics.Availability(), 1, true, "online")

	// Register HA discovery
	c.registerDiscovery()
}

func (c *Client) registerDiscovery() {
	device := HADevice{
		Identifiers:  []string{c.cfg.DeviceID()},
		Name:         c.cfg.DeviceName,
		Model:        deviceModel(),
		Manufacturer: "Custom",
	}

	if c.cfg.LidSwitchEnabled() {
		c.publishDiscovery(SensorLid, HADiscoveryPayload{
			Name:              "Lid State",
			UniqueID:          c.cfg.DeviceID() + "_" + SensorLid,
			StateTopic:        c.topics.Sensor(SensorLid),
			AvailabilityTopic: c.topics.Availability(),
			Device:            device,
			Icon:              "mdi:laptop",
		})
	}
	if c.cfg.DisplayStateEnabled() {
		c.publishDiscovery(SensorDisplay, HADiscoveryPayload{
			Name:              "Display State",
			UniqueID:          c.cfg.DeviceID() + "_" + SensorDisplay,
			StateTopic:        c.topics.Sensor(SensorDisplay),
			AvailabilityTopic: c.topics.Availability(),
			Device:            device,
			Icon:              "mdi:monitor",
		})
	}
}

// deviceModel describes the host OS, falling back to a fixed name.
func deviceModel() string {
	info, err := host.Info()
	if err != nil || info.Platform == "" {
		return "Lid Agent Go"
	}
	return info.Platform + " " + info.PlatformVersion
}

func (c *Client) publishDiscovery(name string, payload HADiscoveryPayload) {
	data, _ := json.Marshal(payload)
	c.Publish(c.topics.Discovery("sensor", name), 1, true, data)
}

// PublishEvent publishes the state carried by a power event. It never waits
// on the broker so it is safe to call from the window thread.
func (c *Client) PublishEvent(e power.Event) {
	sensor, value, ok := StateOf(e)
	if !ok || !c.IsConnected() {
		return
	}
	token := c.Publish(c.topics.Sensor(sensor), 1, true, value)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			log.Warnf("Publish %s timed out", sensor)
			return
		}
		if token.Error() != nil {
			log.Warnf("Failed to publish %s: %v", sensor, token.Error())
		}
	}()
}

// Close marks the device offline and disconnects.
func (c *Client) Close() {
	if c.IsConnected() {
		c.Publish(c.topics.Availability(), 1, true, "offline").WaitTimeout(2 * time.Second)
	}
	c.Disconnect(500)
}
