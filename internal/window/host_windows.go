// Package window owns the hidden window the power hook is attached to and
// pumps its messages.
package window

import (
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"lid-agent/internal/winapi"
)

const (
	WM_APP_HEARTBEAT = winapi.WM_USER + 1 // Custom message for heartbeat

	heartbeatInterval = 60 * time.Second
	heartbeatTimeout  = 70 * time.Second
)

// AttachFunc runs on the window thread once the window exists. The returned
// detach func runs on the same thread before the window is destroyed.
type AttachFunc func(hwnd uintptr) (detach func())

// Host is a hidden top-level window with its own message pump.
type Host struct {
	className     string
	attach        AttachFunc
	hwnd          uintptr
	wg            sync.WaitGroup
	stopped       atomic.Bool
	lastHeartbeat atomic.Int64 // Unix timestamp of last heartbeat response
	mu            sync.Mutex
	heartbeatDone chan struct{} // Signal to stop heartbeat monitor
	ready         chan error
}

func NewHost(className string, attach AttachFunc) *Host {
	h := &Host{
		className:     className,
		attach:        attach,
		heartbeatDone: make(chan struct{}),
		ready:         make(chan error, 1),
	}
	h.lastHeartbeat.Store(time.Now().Unix())
	return h
}

// Start creates the window and begins pumping. It returns once the window
// exists and attach has run, or with the creation error.
func (h *Host) Start() error {
	h.wg.Add(1)
	go h.pump()

	if err := <-h.ready; err != nil {
		h.wg.Wait()
		return err
	}

	// Start heartbeat monitor to detect if message pump died
	go h.monitorHeartbeat()
	return nil
}

func (h *Host) Stop() {
	if !h.stopped.CompareAndSwap(false, true) {
		return
	}

	// Stop heartbeat monitor
	close(h.heartbeatDone)

	h.mu.Lock()
	hwnd := h.hwnd
	h.mu.Unlock()

	// Post WM_QUIT to unblock GetMessageW
	if hwnd != 0 {
		winapi.PostMessageW.Call(hwnd, winapi.WM_QUIT, 0, 0)
	}

	h.wg.Wait()
}

// monitorHeartbeat periodically checks if the message pump is still responsive.
// If the message pump stops responding (e.g., after wake from sleep), it logs a warning.
func (h *Host) monitorHeartbeat() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.heartbeatDone:
			return
		case <-ticker.C:
		}

		h.mu.Lock()
		hwnd := h.hwnd
		h.mu.Unlock()

		if hwnd != 0 {
			winapi.PostMessageW.Call(hwnd, WM_APP_HEARTBEAT, 0, 0)
		}

		// Check if we got a response within 5 seconds
		select {
		case <-h.heartbeatDone:
			return
		case <-time.After(5 * time.Second):
		}
		lastBeat := h.lastHeartbeat.Load()
		if time.Since(time.Unix(lastBeat, 0)) > heartbeatTimeout {
			log.Warn("Host window message pump may be unresponsive")
		}
	}
}

func (h *Host) pump() {
	defer h.wg.Done()

	// Windows message pumps are thread-affine - the window must be created
	// and its messages processed on the same thread. The hook relies on this
	// too: it is attached, called and disposed only here.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className, _ := syscall.UTF16PtrFromString(h.className)
	windowName, _ := syscall.UTF16PtrFromString("")

	wndProc := syscall.NewCallback(func(hwnd, msg, wParam, lParam uintptr) uintptr {
		if msg == WM_APP_HEARTBEAT {
			// Respond to heartbeat - proves message pump is alive
			h.lastHeartbeat.Store(time.Now().Unix())
		}
		ret, _, _ := winapi.DefWindowProcW.Call(hwnd, msg, wParam, lParam)
		return ret
	})

	instance, _, _ := winapi.GetModuleHandleW.Call(0)

	var wc winapi.WNDCLASSEXW
	wc.Size = uint32(unsafe.Sizeof(wc))
	wc.WndProc = wndProc
	wc.ClassName = className
	winapi.RegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))

	hwnd, _, err := winapi.CreateWindowExW.Call(
		0, uintptr(unsafe.Pointer(className)), uintptr(unsafe.Pointer(windowName)),
		0, 0, 0, 0, 0, 0, 0, instance, 0,
	)
	if hwnd == 0 {
		h.ready <- errors.Wrapf(err, "create window %s", h.className)
		return
	}

	h.mu.Lock()
	h.hwnd = hwnd
	h.mu.Unlock()

	var detach func()
	if h.attach != nil {
		detach = h.attach(hwnd)
	}
	h.ready <- nil

	defer func() {
		// Unhook before the window goes away
		if detach != nil {
			detach()
		}
		h.mu.Lock()
		winapi.DestroyWindow.Call(h.hwnd)
		h.hwnd = 0
		h.mu.Unlock()
	}()

	var msg winapi.MSG
	// GetMessageW blocks until a message is available - no busy loop!
	for {
		ret, _, _ := winapi.GetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		if ret == 0 || ret == ^uintptr(0) { // WM_QUIT or error
			log.Info("Host window message pump exiting")
			return
		}

		winapi.DispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}
