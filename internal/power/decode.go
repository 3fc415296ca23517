package power

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"lid-agent/internal/winapi"
)

var (
	// ErrShortHeader is returned when the payload can't hold the GUID and DataLength.
	ErrShortHeader = errors.New("power setting payload shorter than header")
	// ErrNoData is returned when the payload carries no status byte.
	ErrNoData = errors.New("power setting payload has no data")
)

// Setting is a POWERBROADCAST_SETTING reduced to what the hook cares about.
type Setting struct {
	GUID   GUID
	Class  Class
	Status byte
}

// ParseSetting decodes a raw POWERBROADCAST_SETTING. When the GUID could be
// read but the data could not, the returned Setting still carries the class
// so callers can report a class-specific unknown state.
func ParseSetting(b []byte) (Setting, error) {
	var s Setting
	if len(b) < winapi.PowerBroadcastSettingHeader {
		return s, errors.Wrapf(ErrShortHeader, "got %d bytes", len(b))
	}

	s.GUID = GUID{
		Data1: binary.LittleEndian.Uint32(b[0:4]),
		Data2: binary.LittleEndian.Uint16(b[4:6]),
		Data3: binary.LittleEndian.Uint16(b[6:8]),
	}
	copy(s.GUID.Data4[:], b[8:16])
	s.Class = classOf(s.GUID)

	n := binary.LittleEndian.Uint32(b[16:20])
	data := b[winapi.PowerBroadcastSettingHeader:]
	if n == 0 || len(data) == 0 {
		return s, errors.Wrapf(ErrNoData, "setting %s", s.GUID)
	}
	s.Status = data[0]
	return s, nil
}

func classOf(g GUID) Class {
	switch g {
	case GUID_LIDSWITCH_STATE_CHANGE:
		return ClassLidSwitch
	case GUID_CONSOLE_DISPLAY_STATE:
		return ClassConsoleDisplay
	}
	return ClassUnrecognized
}
