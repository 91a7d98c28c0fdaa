//go:build !linux && !windows

package clockadj

import "time"

// Step на этой платформе не поддерживается.
func Step(t time.Time) error {
	_ = t
	return &ApplyError{Op: "settime", Err: ErrUnsupported}
}

func (systemClock) UTC() time.Time {
	return time.Now().UTC()
}
