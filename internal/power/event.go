package power

import "fmt"

// Class identifies the power setting a notification was delivered for.
type Class uint8

const (
	ClassUnrecognized Class = iota
	ClassLidSwitch
	ClassConsoleDisplay
)

func (c Class) String() string {
	switch c {
	case ClassLidSwitch:
		return "lid_switch"
	case ClassConsoleDisplay:
		return "console_display"
	default:
		return "unrecognized"
	}
}

// GUID mirrors the Win32 GUID layout so settings can be compared without
// pulling in the windows package on other platforms.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1], g.Data4[2], g.Data4[3],
		g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// Power setting GUIDs from winnt.h
var (
	GUID_LIDSWITCH_STATE_CHANGE = GUID{0xBA3E0F4D, 0xB817, 0x4094, [8]byte{0xA2, 0xD1, 0xD5, 0x63, 0x79, 0xE6, 0xA0, 0xF3}}
	GUID_CONSOLE_DISPLAY_STATE  = GUID{0x6FE69556, 0x704A, 0x47A0, [8]byte{0x8F, 0x24, 0xC2, 0x8D, 0x93, 0x6F, 0xDA, 0x47}}
)

// GUID returns the power setting GUID registered for the class.
func (c Class) GUID() (GUID, bool) {
	switch c {
	case ClassLidSwitch:
		return GUID_LIDSWITCH_STATE_CHANGE, true
	case ClassConsoleDisplay:
		return GUID_CONSOLE_DISPLAY_STATE, true
	}
	return GUID{}, false
}

// Event is a decoded power setting notification.
type Event uint8

const (
	EventNone Event = iota
	LidClosed
	LidOpened
	LidUnknown
	DisplayOff
	DisplayOn
	DisplayDimmed
	DisplayUnknown
)

var eventNames = map[Event]string{
	EventNone:      "none",
	LidClosed:      "lid_closed",
	LidOpened:      "lid_opened",
	LidUnknown:     "lid_unknown",
	DisplayOff:     "display_off",
	DisplayOn:      "display_on",
	DisplayDimmed:  "display_dimmed",
	DisplayUnknown: "display_unknown",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Class returns the notification class the event belongs to.
func (e Event) Class() Class {
	switch e {
	case LidClosed, LidOpened, LidUnknown:
		return ClassLidSwitch
	case DisplayOff, DisplayOn, DisplayDimmed, DisplayUnknown:
		return ClassConsoleDisplay
	}
	return ClassUnrecognized
}

// classTable maps status bytes to events for one class. Any status missing
// from the table decodes to unknown.
type classTable struct {
	unknown  Event
	statuses map[byte]Event
}

var classTables = map[Class]classTable{
	ClassLidSwitch: {
		unknown: LidUnknown,
		statuses: map[byte]Event{
			0: LidClosed,
			1: LidOpened,
		},
	},
	ClassConsoleDisplay: {
		unknown: DisplayUnknown,
		statuses: map[byte]Event{
			0: DisplayOff,
			1: DisplayOn,
			2: DisplayDimmed,
		},
	},
}

// UnknownFor returns the unknown event of the class, or EventNone for
// unrecognized classes.
func UnknownFor(c Class) Event {
	if t, ok := classTables[c]; ok {
		return t.unknown
	}
	return EventNone
}

// Classify maps a decoded setting to its event. Unrecognized classes yield EventNone.
func Classify(s Setting) Event {
	t, ok := classTables[s.Class]
	if !ok {
		return EventNone
	}
	if e, ok := t.statuses[s.Status]; ok {
		return e
	}
	return t.unknown
}
