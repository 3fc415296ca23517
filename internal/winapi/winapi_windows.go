package winapi

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// DLLs - loaded lazily on first use
var (
	Kernel32 = syscall.NewLazyDLL("kernel32.dll")
	User32   = windows.NewLazySystemDLL("user32.dll")
)

// Kernel32 procs
var (
	SetConsoleCtrlHandler = Kernel32.NewProc("SetConsoleCtrlHandler")
	GetModuleHandleW      = Kernel32.NewProc("GetModuleHandleW")
	SetLastError          = Kernel32.NewProc("SetLastError")
)

// User32 procs
var (
	CreateWindowExW                    = User32.NewProc("CreateWindowExW")
	DefWindowProcW                     = User32.NewProc("DefWindowProcW")
	CallWindowProcW                    = User32.NewProc("CallWindowProcW")
	SetWindowLongPtrW                  = User32.NewProc("SetWindowLongPtrW")
	RegisterClassExW                   = User32.NewProc("RegisterClassExW")
	GetMessageW                        = User32.NewProc("GetMessageW")
	DispatchMessageW                   = User32.NewProc("DispatchMessageW")
	PostMessageW                       = User32.NewProc("PostMessageW")
	DestroyWindow                      = User32.NewProc("DestroyWindow")
	RegisterPowerSettingNotification   = User32.NewProc("RegisterPowerSettingNotification")
	UnregisterPowerSettingNotification = User32.NewProc("UnregisterPowerSettingNotification")
)

// WNDCLASSEXW for window class registration
type WNDCLASSEXW struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

// MSG for the message pump
type MSG struct {
	Hwnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// PowerBroadcastSetting mirrors POWERBROADCAST_SETTING. Data is variable length.
type PowerBroadcastSetting struct {
	PowerSetting windows.GUID
	DataLength   uint32
	Data         [1]byte
}
