//go:build windows

package clockadj

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procSetSystemTime = kernel32.NewProc("SetSystemTime")
)

// Step устанавливает системное время через SetSystemTime. Требует
// привилегии SeSystemtimePrivilege.
func Step(t time.Time) error {
	t = t.UTC()
	st := windows.Systemtime{
		Year:         uint16(t.Year()),
		Month:        uint16(t.Month()),
		DayOfWeek:    uint16(t.Weekday()),
		Day:          uint16(t.Day()),
		Hour:         uint16(t.Hour()),
		Minute:       uint16(t.Minute()),
		Second:       uint16(t.Second()),
		Milliseconds: uint16(t.Nanosecond() / int(time.Millisecond)),
	}
	if err := procSetSystemTime.Find(); err != nil {
		return &ApplyError{Op: "SetSystemTime", Err: err}
	}
	r1, _, e1 := procSetSystemTime.Call(uintptr(unsafe.Pointer(&st)))
	if r1 == 0 {
		return applyError("SetSystemTime", e1)
	}
	return nil
}

func (systemClock) UTC() time.Time {
	return time.Now().UTC()
}
