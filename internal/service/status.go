package service

import (
	"sync"

	"github.com/shiwa/ntpsync/internal/logger"
)

// State состояние сервиса; значения совпадают с состояниями Windows SCM.
type State int

const (
	StateStopped State = iota + 1
	StateStartPending
	StateStopPending
	StateRunning
	StateContinuePending
	StatePausePending
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStartPending:
		return "start_pending"
	case StateStopPending:
		return "stop_pending"
	case StateRunning:
		return "running"
	case StateContinuePending:
		return "continue_pending"
	case StatePausePending:
		return "pause_pending"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// StatusReporter получает каждое изменение состояния сервиса.
type StatusReporter interface {
	SetState(state State)
}

// LogReporter пишет изменения состояния в журнал.
type LogReporter struct {
	Log logger.Logger
}

func (r LogReporter) SetState(state State) {
	r.Log.Writef("Service state: %s", state)
}

// Recorder запоминает историю состояний.
type Recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *Recorder) SetState(state State) {
	r.mu.Lock()
	r.states = append(r.states, state)
	r.mu.Unlock()
}

// States копия истории.
func (r *Recorder) States() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

// MultiReporter рассылает состояние нескольким получателям.
type MultiReporter []StatusReporter

func (m MultiReporter) SetState(state State) {
	for _, r := range m {
		r.SetState(state)
	}
}
