//go:build windows

package main

import (
	"os"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
	"golang.org/x/sys/windows/svc"

	"lid-agent/internal/config"
	"lid-agent/internal/logging"
	"lid-agent/internal/mqtt"
	"lid-agent/internal/power"
	"lid-agent/internal/winapi"
	"lid-agent/internal/window"
)

const (
	serviceName     = "LidAgentService"
	windowClassName = "LidAgentPowerHook"
)

var (
	configPath  = flag.StringP("config", "c", "", "path to userConfig.json (default: next to the executable)")
	consoleMode = flag.Bool("console", false, "run in console mode even when started by the service manager")
)

type lidAgent struct {
	cfg        *config.UserConfig
	mqttClient *mqtt.Client
	host       *window.Host
	watcher    *config.Watcher
	mu         sync.Mutex // protects mqttClient access
}

func main() {
	flag.Parse()

	isService, err := svc.IsWindowsService()
	if err != nil {
		log.Fatalf("Failed to detect service mode: %v", err)
	}

	if isService && !*consoleMode {
		if err := svc.Run(serviceName, &lidAgent{}); err != nil {
			log.Fatalf("Service failed: %v", err)
		}
		return
	}

	// Run in console mode for testing
	log.Info("Running in console mode (not as service)")
	log.Info("To install as service:")
	log.Info(`  sc create LidAgentService binPath= "C:\path\to\lid-agent.exe"`)
	log.Info("  sc start LidAgentService")

	agent := &lidAgent{}
	if err := agent.run(true); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	// Set up graceful shutdown via Windows console control handler
	// This catches: Ctrl+C, Ctrl+Break, console close, logoff, shutdown
	shutdownChan := make(chan struct{})
	var once sync.Once
	handlerCallback := syscall.NewCallback(func(ctrlType uint32) uintptr {
		switch ctrlType {
		case winapi.CTRL_C_EVENT, winapi.CTRL_BREAK_EVENT, winapi.CTRL_CLOSE_EVENT, winapi.CTRL_LOGOFF_EVENT, winapi.CTRL_SHUTDOWN_EVENT:
			log.Infof("Received shutdown signal (type %d)", ctrlType)
			once.Do(func() { close(shutdownChan) })
			return 1 // Handled
		}
		return 0 // Not handled
	})
	winapi.SetConsoleCtrlHandler.Call(handlerCallback, 1)

	// Wait for shutdown signal
	<-shutdownChan

	log.Info("Shutting down...")
	agent.stop()
}

func (a *lidAgent) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	changes <- svc.Status{State: svc.StartPending}

	if err := a.run(false); err != nil {
		log.Errorf("Failed to start: %v", err)
		return true, 1
	}

	changes <- svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}

	for c := range r {
		switch c.Cmd {
		case svc.Interrogate:
			changes <- c.CurrentStatus
		case svc.Stop, svc.Shutdown:
			changes <- svc.Status{State: svc.StopPending}
			a.stop()
			return false, 0
		}
	}
	return false, 0
}

func (a *lidAgent) run(console bool) error {
	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a.cfg = cfg

	// Services have no console to write to
	if !console {
		no := false
		cfg.Log.Stdout = &no
	}
	if err := logging.Init(cfg.Log); err != nil {
		return err
	}
	log.Infof("Lid agent starting for device: %s", cfg.DeviceName)

	// Hot-reload the log level
	a.watcher, err = config.Watch(path, func(updated *config.UserConfig) {
		if err := logging.SetLevel(updated.Log.Level); err != nil {
			log.Warn(err)
		}
	})
	if err != nil {
		log.Warnf("Config hot-reload disabled: %v", err)
	}

	if cfg.MQTT.Enabled {
		a.mqttClient = mqtt.NewClient(cfg)
		if err := a.mqttClient.Connect(); err != nil {
			log.Warnf("MQTT connection failed: %v (will retry)", err)
			// Continue anyway - auto-reconnect will handle it
		}
	}

	a.host = window.NewHost(windowClassName, a.attach)
	return a.host.Start()
}

// attach runs on the host window thread.
func (a *lidAgent) attach(hwnd uintptr) func() {
	var classes []power.Class
	if a.cfg.DisplayStateEnabled() {
		classes = append(classes, power.ClassConsoleDisplay)
	}
	if a.cfg.LidSwitchEnabled() {
		classes = append(classes, power.ClassLidSwitch)
	}

	hook := power.Attach(hwnd, power.NewWin32(), power.Options{
		Classes: classes,
		OnEvent: a.publish,
	})
	if err := hook.Err(); err != nil {
		log.Warnf("Power hook is %s: %v", hook.State(), err)
	}
	return hook.Dispose
}

func (a *lidAgent) publish(e power.Event) {
	// Copy client ref under lock, publish outside to avoid blocking the window thread
	a.mu.Lock()
	client := a.mqttClient
	a.mu.Unlock()

	if client != nil {
		client.PublishEvent(e)
	}
}

func (a *lidAgent) stop() {
	// Stop the pump first; the hook is disposed on its thread
	if a.host != nil {
		a.host.Stop()
	}

	if a.watcher != nil {
		a.watcher.Stop()
	}

	a.mu.Lock()
	if a.mqttClient != nil {
		a.mqttClient.Close()
		a.mqttClient = nil
	}
	a.mu.Unlock()

	log.Info("Lid agent stopped")
	logging.Close()
}

func init() {
	// Log to stdout until the config has been read
	log.SetOutput(os.Stdout)
}
