package power

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"

	"lid-agent/internal/winapi"
)

// Callbacks created by syscall.NewCallback are never freed and the runtime
// caps how many a process may create, so every hooked window shares one
// trampoline and is dispatched by hwnd.
var (
	trampolineOnce sync.Once
	trampoline     uintptr

	handlersMu sync.Mutex
	handlers   = make(map[uintptr]MessageHandler)
)

func dispatch(hwnd, msg, wParam, lParam uintptr) uintptr {
	handlersMu.Lock()
	h, ok := handlers[hwnd]
	handlersMu.Unlock()
	if ok {
		return h.HandleMessage(hwnd, uint32(msg), wParam, lParam)
	}
	// Restore failed or raced with teardown: keep the window alive.
	ret, _, _ := winapi.DefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return ret
}

// Win32 is the Platform backed by user32.
type Win32 struct{}

// NewWin32 returns the user32 platform.
func NewWin32() *Win32 {
	trampolineOnce.Do(func() {
		trampoline = syscall.NewCallback(dispatch)
	})
	return &Win32{}
}

func (*Win32) Register(hwnd uintptr, setting GUID) (uintptr, error) {
	guid := windows.GUID{
		Data1: setting.Data1,
		Data2: setting.Data2,
		Data3: setting.Data3,
		Data4: setting.Data4,
	}
	handle, _, err := winapi.RegisterPowerSettingNotification.Call(
		hwnd,
		uintptr(unsafe.Pointer(&guid)),
		winapi.DEVICE_NOTIFY_WINDOW_HANDLE,
	)
	if handle == 0 {
		return 0, errors.Wrap(err, "RegisterPowerSettingNotification")
	}
	return handle, nil
}

func (*Win32) Unregister(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	ret, _, err := winapi.UnregisterPowerSettingNotification.Call(handle)
	if ret == 0 {
		return errors.Wrap(err, "UnregisterPowerSettingNotification")
	}
	return nil
}

func (*Win32) Intercept(hwnd uintptr, h MessageHandler) (WndProc, error) {
	handlersMu.Lock()
	handlers[hwnd] = h
	handlersMu.Unlock()

	winapi.SetLastError.Call(0)
	prev, _, err := winapi.SetWindowLongPtrW.Call(hwnd, winapi.GWLP_WNDPROC, trampoline)
	if prev == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			handlersMu.Lock()
			delete(handlers, hwnd)
			handlersMu.Unlock()
			return 0, errors.Wrap(err, "SetWindowLongPtrW")
		}
		// The window had no procedure. DefWindowProcW is a safe forward
		// target and a valid procedure to put back on restore.
		return WndProc(winapi.DefWindowProcW.Addr()), nil
	}
	return WndProc(prev), nil
}

func (*Win32) Restore(hwnd uintptr, prev WndProc) error {
	winapi.SetLastError.Call(0)
	ret, _, err := winapi.SetWindowLongPtrW.Call(hwnd, winapi.GWLP_WNDPROC, uintptr(prev))
	if ret == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno != 0 {
			return errors.Wrap(err, "SetWindowLongPtrW")
		}
	}
	handlersMu.Lock()
	delete(handlers, hwnd)
	handlersMu.Unlock()
	return nil
}

func (*Win32) Forward(prev WndProc, hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	ret, _, _ := winapi.CallWindowProcW.Call(uintptr(prev), hwnd, uintptr(msg), wParam, lParam)
	return ret
}

func (*Win32) ReadSetting(lParam uintptr) ([]byte, error) {
	if lParam == 0 {
		return nil, errors.New("nil POWERBROADCAST_SETTING")
	}
	// lParam is a pointer the OS owns for the duration of the message; copy
	// out before returning so nothing outlives the window procedure call.
	ps := (*winapi.PowerBroadcastSetting)(unsafe.Pointer(lParam))
	n := winapi.PowerBroadcastSettingHeader + int(ps.DataLength)
	raw := unsafe.Slice((*byte)(unsafe.Pointer(lParam)), n)
	b := make([]byte, n)
	copy(b, raw)
	return b, nil
}
