//go:build windows

package logger

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/windows/svc/eventlog"
)

// eventID идентификатор информационных событий сервиса.
const eventID = 1

// System пишет в журнал событий Windows от имени источника name.
type System struct {
	name string

	mu  sync.Mutex
	log *eventlog.Log
}

// NewSystem создаёт логгер журнала событий; источник регистрируется в Start.
func NewSystem(name string) *System {
	return &System{name: name}
}

// Start регистрирует источник событий, если его ещё нет, и открывает журнал.
func (s *System) Start() error {
	err := eventlog.InstallAsEventCreate(s.name, eventlog.Info|eventlog.Warning|eventlog.Error)
	if err != nil && !strings.Contains(err.Error(), "registry key already exists") {
		return fmt.Errorf("install event source %s: %w", s.name, err)
	}
	l, err := eventlog.Open(s.name)
	if err != nil {
		return fmt.Errorf("open event log %s: %w", s.name, err)
	}
	s.mu.Lock()
	s.log = l
	s.mu.Unlock()
	return nil
}

func (s *System) Write(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log == nil {
		return
	}
	_ = s.log.Info(eventID, message)
}

func (s *System) Writef(format string, args ...interface{}) {
	s.Write(fmt.Sprintf(format, args...))
}
