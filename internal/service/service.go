// Package service хост сервиса синхронизации: последовательности запуска и
// остановки, перезагрузка параметров, внешние события пробуждения и сигналы ОС.
// Service реализует daemon.Executable.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/logger"
	"github.com/shiwa/ntpsync/internal/scheduler"
)

// ErrNotRunning сервис не запущен или уже остановлен.
var ErrNotRunning = errors.New("service is not running")

// LoadFunc читает параметры из хранилища; всегда возвращает пригодные Settings.
type LoadFunc func() config.Settings

// Attempt последняя выполненная попытка.
type Attempt struct {
	Trigger scheduler.Trigger
	Outcome engine.Outcome
}

// Status снимок состояния для API.
type Status struct {
	Name     string
	State    State
	Settings config.Settings
	Interval time.Duration
	Last     *Attempt
}

// Config зависимости сервиса; все поля, кроме Observer, обязательны.
type Config struct {
	Name      string
	Log       logger.Logger
	Reporter  StatusReporter
	Settings  *config.Holder
	Load      LoadFunc
	Attempter scheduler.Attempter
	Observer  scheduler.Observer
}

// Service управляет планировщиком в течение жизни процесса.
type Service struct {
	cfg Config

	mu      sync.Mutex
	started bool
	state   State
	sched   *scheduler.Scheduler
	last    *Attempt
	done    chan struct{}
}

// New создаёт остановленный сервис. Сервис запускается один раз.
func New(cfg Config) *Service {
	return &Service{cfg: cfg, state: StateStopped, done: make(chan struct{})}
}

// Start последовательность запуска. Ошибка запуска записывается в журнал,
// после чего сервис останавливается сам.
func (s *Service) Start() {
	if err := s.start(); err != nil {
		s.cfg.Log.Writef("Fatal error in Start: %v", err)
		s.Stop()
	}
}

func (s *Service) start() (err error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	s.setState(StateStartPending)
	if err := s.cfg.Log.Start(); err != nil {
		return fmt.Errorf("start logger: %w", err)
	}
	s.cfg.Log.Write("Service is starting...")

	settings := s.cfg.Load()
	s.cfg.Settings.Replace(settings)

	sched := scheduler.New(s.cfg.Attempter, s.cfg.Log, settings.PollInterval(), s.observe)
	s.mu.Lock()
	s.sched = sched
	s.mu.Unlock()
	sched.Start(context.Background())

	s.setState(StateRunning)
	s.cfg.Log.Write("Service started successfully.")
	return nil
}

// Stop последовательность остановки. Не ждёт текущую попытку синхронизации.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started || s.state == StateStopped {
		s.mu.Unlock()
		return
	}
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()

	s.setState(StateStopPending)
	if sched != nil {
		sched.Stop()
	}
	s.setState(StateStopped)
	s.cfg.Log.Write("Service stopped.")

	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
}

// Run запускает сервис и блокируется до сигнала остановки или вызова Stop.
func (s *Service) Run() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, handledSignals()...)
	defer signal.Stop(sigs)

	s.Start()
	for {
		select {
		case <-s.Done():
			return
		case sig := <-sigs:
			if !s.handleSignal(sig) {
				return
			}
		}
	}
}

// Done закрывается после остановки сервиса.
func (s *Service) Done() <-chan struct{} {
	return s.done
}

// handleSignal false, если сигнал остановил сервис.
func (s *Service) handleSignal(sig os.Signal) bool {
	switch {
	case isReload(sig):
		s.Reload()
	case isWake(sig):
		s.Wake(sig.String())
	default:
		s.cfg.Log.Writef("Caught %s", sig)
		s.Stop()
		return false
	}
	return true
}

// Reload перечитывает параметры; изменённый интервал применяется к таймеру.
func (s *Service) Reload() config.Settings {
	settings := s.cfg.Load()
	prev := s.cfg.Settings.Replace(settings)
	if settings.PollInterval() != prev.PollInterval() {
		if sched := s.scheduler(); sched != nil {
			sched.Reset(settings.PollInterval())
		}
	}
	return settings
}

// Wake внеочередная синхронизация по внешнему событию.
func (s *Service) Wake(event string) {
	sched := s.scheduler()
	if sched == nil {
		return
	}
	s.cfg.Log.Writef("Setting NTP time on %s event", event)
	sched.Wake()
}

// SessionUnlock событие разблокировки сеанса пользователя.
func (s *Service) SessionUnlock() {
	s.Wake("SessionUnlock")
}

// SyncNow внеочередная синхронизация с ожиданием итога.
func (s *Service) SyncNow() (engine.Outcome, error) {
	sched := s.scheduler()
	if sched == nil {
		return engine.Outcome{}, ErrNotRunning
	}
	out, ok := sched.SyncNow()
	if !ok {
		return engine.Outcome{}, ErrNotRunning
	}
	return out, nil
}

// Status текущее состояние сервиса.
func (s *Service) Status() Status {
	s.mu.Lock()
	st := Status{Name: s.cfg.Name, State: s.state}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	sched := s.sched
	s.mu.Unlock()

	st.Settings = s.cfg.Settings.Snapshot()
	st.Interval = st.Settings.PollInterval()
	if sched != nil {
		st.Interval = sched.Interval()
	}
	return st
}

func (s *Service) scheduler() *scheduler.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning && s.state != StateStartPending {
		return nil
	}
	return s.sched
}

func (s *Service) observe(trigger scheduler.Trigger, out engine.Outcome) {
	s.mu.Lock()
	s.last = &Attempt{Trigger: trigger, Outcome: out}
	s.mu.Unlock()
	if s.cfg.Observer != nil {
		s.cfg.Observer(trigger, out)
	}
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.cfg.Reporter.SetState(state)
}
