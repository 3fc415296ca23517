// Package winapi provides centralized Windows API declarations.
// This avoids duplicate DLL loading across packages.
package winapi

// Constants
const (
	// Console control events
	CTRL_C_EVENT        = 0
	CTRL_BREAK_EVENT    = 1
	CTRL_CLOSE_EVENT    = 2
	CTRL_LOGOFF_EVENT   = 5
	CTRL_SHUTDOWN_EVENT = 6

	// Window messages
	WM_POWERBROADCAST = 0x218
	WM_QUIT           = 0x12
	WM_USER           = 0x0400

	// Power broadcast events
	PBT_POWERSETTINGCHANGE = 0x8013

	// RegisterPowerSettingNotification recipient type
	DEVICE_NOTIFY_WINDOW_HANDLE = 0x00000000

	// SetWindowLongPtrW index for the window procedure (-4 as unsigned)
	GWLP_WNDPROC = ^uintptr(3)
)

// PowerBroadcastSettingHeader is the fixed part of POWERBROADCAST_SETTING:
// a 16 byte GUID followed by the DataLength DWORD. Data follows immediately.
const PowerBroadcastSettingHeader = 20
