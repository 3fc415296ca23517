package power

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/qmuntal/stateless"
	log "github.com/sirupsen/logrus"

	"lid-agent/internal/winapi"
)

// State is the lifecycle state of a Hook.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateRegistering   State = "registering"
	StateHooked        State = "hooked"
	StateDegraded      State = "degraded"
	StateDisposed      State = "disposed"
)

const (
	triggerRegister = "register"
	triggerHook     = "hook"
	triggerDegrade  = "degrade"
	triggerDispose  = "dispose"
)

var (
	// ErrNoSubscriptions means every notification registration failed.
	ErrNoSubscriptions = errors.New("no power setting notification could be registered")
	// ErrNoPreviousProc means the window procedure swap yielded nothing to forward to.
	ErrNoPreviousProc = errors.New("window procedure swap returned no previous procedure")
)

// DefaultClasses are the notifications a hook subscribes to when none are given.
var DefaultClasses = []Class{ClassConsoleDisplay, ClassLidSwitch}

var eventMessages = map[Event]string{
	LidClosed:      "Lid closed",
	LidOpened:      "Lid opened",
	LidUnknown:     "Lid unknown state",
	DisplayOff:     "Monitor power off",
	DisplayOn:      "Monitor power on",
	DisplayDimmed:  "Monitor dimmed",
	DisplayUnknown: "Monitor unknown state",
}

// Options tune a Hook.
type Options struct {
	Classes []Class
	// OnEvent runs on the window thread for every decoded event. It must not block.
	OnEvent func(Event)
	Logger  *log.Entry
}

// Hook subclasses a window to observe lid and display power notifications.
// All methods must be called on the window's thread.
type Hook struct {
	hwnd     uintptr
	platform Platform
	subs     []*Subscription
	prev     WndProc
	fsm      *stateless.StateMachine
	err      error
	onEvent  func(Event)
	log      *log.Entry
}

// Attach subscribes hwnd to power setting notifications and intercepts its
// window procedure. It never fails outright: when nothing could be registered,
// or the procedure could not be swapped, the hook is left Degraded and Err
// reports why. The returned hook must always be disposed.
func Attach(hwnd uintptr, p Platform, opts Options) *Hook {
	h := &Hook{
		hwnd:     hwnd,
		platform: p,
		onEvent:  opts.OnEvent,
		log:      opts.Logger,
	}
	if h.log == nil {
		h.log = log.WithField("component", "power")
	}
	h.log = h.log.WithField("hwnd", fmt.Sprintf("0x%X", hwnd))
	h.fsm = newStateMachine(h.log)

	h.fire(triggerRegister)

	classes := opts.Classes
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	valid := 0
	for _, c := range classes {
		sub, err := subscribe(p, hwnd, c)
		h.subs = append(h.subs, sub)
		if err != nil {
			h.fail(err)
			continue
		}
		valid++
	}
	if valid == 0 {
		h.fail(ErrNoSubscriptions)
		h.fire(triggerDegrade)
		return h
	}

	prev, err := p.Intercept(hwnd, h)
	if err == nil && prev == 0 {
		err = ErrNoPreviousProc
	}
	if err != nil {
		h.fail(errors.Wrap(err, "intercept window procedure"))
		h.fire(triggerDegrade)
		return h
	}
	h.prev = prev
	h.fire(triggerHook)
	h.log.Infof("Power notifications hooked (%d of %d subscriptions)", valid, len(classes))
	return h
}

func newStateMachine(l *log.Entry) *stateless.StateMachine {
	sm := stateless.NewStateMachine(StateUninitialized)
	sm.Configure(StateUninitialized).
		Permit(triggerRegister, StateRegistering).
		Permit(triggerDispose, StateDisposed)
	sm.Configure(StateRegistering).
		Permit(triggerHook, StateHooked).
		Permit(triggerDegrade, StateDegraded).
		Permit(triggerDispose, StateDisposed)
	sm.Configure(StateHooked).
		Permit(triggerDispose, StateDisposed)
	sm.Configure(StateDegraded).
		Permit(triggerDispose, StateDisposed)
	sm.Configure(StateDisposed).
		Ignore(triggerDispose)
	sm.OnTransitioned(func(_ context.Context, t stateless.Transition) {
		l.Debugf("power hook %v -> %v", t.Source, t.Destination)
	})
	return sm
}

func (h *Hook) fire(trigger string) {
	if err := h.fsm.Fire(trigger); err != nil {
		h.log.Errorf("power hook: %v", err)
	}
}

func (h *Hook) fail(err error) {
	h.log.Warn(err)
	if h.err == nil {
		h.err = err
	}
}

// State returns the current lifecycle state.
func (h *Hook) State() State {
	return h.fsm.MustState().(State)
}

// Err returns the first failure seen while attaching, if any.
func (h *Hook) Err() error {
	return h.err
}

// Subscriptions returns the notification subscriptions, including failed ones.
func (h *Hook) Subscriptions() []*Subscription {
	return h.subs
}

// Dispose restores the original window procedure and unregisters every
// notification. Only the first call has any effect; failures are logged.
func (h *Hook) Dispose() {
	if h.State() == StateDisposed {
		return
	}
	if h.prev != 0 {
		if err := h.platform.Restore(h.hwnd, h.prev); err != nil {
			h.log.Warnf("Couldn't restore window procedure: %v", err)
		}
	}
	for _, sub := range h.subs {
		if err := sub.Release(h.platform); err != nil {
			h.log.Warn(err)
		}
	}
	h.fire(triggerDispose)
	h.log.Info("Power notifications released")
}

// HandleMessage is the window procedure installed by Attach. Every message
// is forwarded to the previous procedure and its result returned unchanged.
func (h *Hook) HandleMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	if msg == winapi.WM_POWERBROADCAST && wParam == winapi.PBT_POWERSETTINGCHANGE && h.State() == StateHooked {
		h.emit(h.decode(lParam))
	}
	if h.prev == 0 {
		return 0
	}
	return h.platform.Forward(h.prev, hwnd, msg, wParam, lParam)
}

func (h *Hook) decode(lParam uintptr) (e Event) {
	class := ClassUnrecognized
	defer func() {
		if r := recover(); r != nil {
			h.log.Warnf("Power setting decode panicked: %v", r)
			e = UnknownFor(class)
		}
	}()

	raw, err := h.platform.ReadSetting(lParam)
	if err != nil {
		h.log.Warnf("Couldn't read power setting: %v", err)
		return EventNone
	}
	s, err := ParseSetting(raw)
	class = s.Class
	if err != nil {
		h.log.Warnf("Malformed power setting: %v", err)
		return UnknownFor(class)
	}
	e = Classify(s)
	if e == EventNone {
		h.log.Debugf("Ignoring power setting %s", s.GUID)
	}
	return e
}

func (h *Hook) emit(e Event) {
	if e == EventNone {
		return
	}
	h.log.WithField("event", e.String()).Info(eventMessages[e])
	if h.onEvent == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.log.Errorf("Power event handler panicked: %v", r)
		}
	}()
	h.onEvent(e)
}
