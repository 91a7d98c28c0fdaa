//go:build linux

package clockadj

import (
	"time"

	"golang.org/x/sys/unix"
)

// Step устанавливает CLOCK_REALTIME (скачок). Требует CAP_SYS_TIME или root.
func Step(t time.Time) error {
	ts := unix.NsecToTimespec(t.UnixNano())
	if err := unix.ClockSettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return applyError("clock_settime", err)
	}
	return nil
}

func (systemClock) UTC() time.Time {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		return time.Now().UTC()
	}
	return time.Unix(ts.Unix()).UTC()
}
