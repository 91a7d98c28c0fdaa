// Package clockadj доступ к системным часам: чтение и установка (шаг) времени.
package clockadj

import (
	"errors"
	"fmt"
	"syscall"
	"time"
)

// ErrUnsupported установка времени не реализована для этой платформы.
var ErrUnsupported = errors.New("setting the system clock is not supported on this platform")

// Clock системные часы. Часы машины общие для всех процессов, поэтому
// вызывающий сам отвечает за то, чтобы SetUTC не вызывался конкурентно.
type Clock interface {
	// SetUTC устанавливает системное время; ошибка имеет тип *ApplyError.
	SetUTC(t time.Time) error
	// UTC текущее системное время в UTC.
	UTC() time.Time
	// Local текущее системное время в локальной зоне.
	Local() time.Time
}

// ApplyError ошибка платформы при установке времени.
type ApplyError struct {
	Op   string
	Code int
	Err  error
}

func (e *ApplyError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %v (code %d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ApplyError) Unwrap() error {
	return e.Err
}

// System часы текущей машины.
func System() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) SetUTC(t time.Time) error {
	return Step(t.UTC())
}

func (systemClock) Local() time.Time {
	return time.Now()
}

// applyError оборачивает ошибку платформы; код берётся из syscall.Errno.
func applyError(op string, err error) error {
	e := &ApplyError{Op: op, Err: err}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Code = int(errno)
	}
	return e
}
