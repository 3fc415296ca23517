package power

import "github.com/pkg/errors"

// Subscription owns one power setting notification handle. A zero handle
// means registration failed.
type Subscription struct {
	Class    Class
	handle   uintptr
	released bool
}

func subscribe(r Registrar, hwnd uintptr, c Class) (*Subscription, error) {
	sub := &Subscription{Class: c}
	guid, ok := c.GUID()
	if !ok {
		return sub, errors.Errorf("no power setting for class %s", c)
	}
	handle, err := r.Register(hwnd, guid)
	if err == nil && handle == 0 {
		err = errors.New("invalid notification handle")
	}
	if err != nil {
		return sub, errors.Wrapf(err, "register %s notification", c)
	}
	sub.handle = handle
	return sub, nil
}

// Valid reports whether the subscription holds a live handle.
func (s *Subscription) Valid() bool {
	return s.handle != 0 && !s.released
}

// Release unregisters the handle, valid or not, exactly once. Later calls
// are no-ops.
func (s *Subscription) Release(r Registrar) error {
	if s.released {
		return nil
	}
	s.released = true
	handle := s.handle
	s.handle = 0
	if err := r.Unregister(handle); err != nil {
		return errors.Wrapf(err, "unregister %s notification", s.Class)
	}
	return nil
}
