package power

import (
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures the messages the trampoline routes to it.
type recordingHandler struct {
	msgs []uint32
}

func (r *recordingHandler) HandleMessage(_ uintptr, msg uint32, _, _ uintptr) uintptr {
	r.msgs = append(r.msgs, msg)
	return 42
}

func TestWin32UnregisterZeroHandle(t *testing.T) {
	assert.NoError(t, NewWin32().Unregister(0))
}

func TestWin32ReadSetting(t *testing.T) {
	p := NewWin32()

	_, err := p.ReadSetting(0)
	assert.Error(t, err)

	setting := encodeSetting(GUID_LIDSWITCH_STATE_CHANGE, 1, 0, 0, 0)
	// bytes past DataLength must not be copied
	buf := append(append([]byte{}, setting...), 0xEE, 0xEE, 0xEE, 0xEE)

	b, err := p.ReadSetting(uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	require.NoError(t, err)
	assert.Equal(t, setting, b)

	s, err := ParseSetting(b)
	require.NoError(t, err)
	assert.Equal(t, LidOpened, Classify(s))
}

func TestWin32RestoreFailureKeepsHandler(t *testing.T) {
	p := NewWin32()
	const hwnd = uintptr(0xDEAD0)
	h := &recordingHandler{}

	handlersMu.Lock()
	handlers[hwnd] = h
	handlersMu.Unlock()
	defer func() {
		handlersMu.Lock()
		delete(handlers, hwnd)
		handlersMu.Unlock()
	}()

	// no such window, so SetWindowLongPtrW fails
	assert.Error(t, p.Restore(hwnd, WndProc(0x1)))

	handlersMu.Lock()
	_, ok := handlers[hwnd]
	handlersMu.Unlock()
	assert.True(t, ok)

	// the window keeps routing through the registered handler
	assert.Equal(t, uintptr(42), dispatch(hwnd, wmPaint, 0, 0))
	assert.Equal(t, []uint32{wmPaint}, h.msgs)
}

func TestDispatchUnknownWindow(t *testing.T) {
	NewWin32()
	const hwnd = uintptr(0xBEEF0)

	handlersMu.Lock()
	_, ok := handlers[hwnd]
	handlersMu.Unlock()
	require.False(t, ok)

	// falls back to DefWindowProcW, which yields 0 for WM_NULL
	assert.NotPanics(t, func() {
		assert.Equal(t, uintptr(0), dispatch(hwnd, 0, 0, 0))
	})
}
