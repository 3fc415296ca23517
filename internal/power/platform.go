package power

// WndProc is the address of a window procedure. Zero means no procedure.
type WndProc uintptr

// MessageHandler receives every message dispatched to a hooked window.
type MessageHandler interface {
	HandleMessage(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr
}

// Registrar subscribes a window to power setting notifications.
type Registrar interface {
	// Register returns the notification handle, or 0 with an error.
	Register(hwnd uintptr, setting GUID) (uintptr, error)
	// Unregister must treat a zero handle as a no-op.
	Unregister(handle uintptr) error
}

// MessageInterceptor swaps a window's message procedure and forwards to the
// one it replaced.
type MessageInterceptor interface {
	// Intercept routes the window's messages to h and returns the previous procedure.
	Intercept(hwnd uintptr, h MessageHandler) (WndProc, error)
	// Restore puts prev back as the window's procedure.
	Restore(hwnd uintptr, prev WndProc) error
	// Forward calls prev with the message unchanged and returns its result.
	Forward(prev WndProc, hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr
	// ReadSetting copies the POWERBROADCAST_SETTING that lParam points to.
	ReadSetting(lParam uintptr) ([]byte, error)
}

// Platform is everything the hook needs from the OS.
type Platform interface {
	Registrar
	MessageInterceptor
}
