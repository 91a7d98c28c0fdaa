//go:build !windows && !plan9

package logger

import (
	"fmt"
	"log/syslog"
	"sync"
)

// System пишет в syslog (facility daemon) от имени сервиса.
type System struct {
	name string

	mu sync.Mutex
	w  *syslog.Writer
}

// NewSystem создаёт системный логгер; соединение открывается в Start.
func NewSystem(name string) *System {
	return &System{name: name}
}

// Start подключается к локальному syslog.
func (s *System) Start() error {
	w, err := syslog.New(syslog.LOG_INFO|syslog.LOG_DAEMON, s.name)
	if err != nil {
		return fmt.Errorf("open syslog: %w", err)
	}
	s.mu.Lock()
	s.w = w
	s.mu.Unlock()
	return nil
}

func (s *System) Write(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return
	}
	_ = s.w.Info(message)
}

func (s *System) Writef(format string, args ...interface{}) {
	s.Write(fmt.Sprintf(format, args...))
}
