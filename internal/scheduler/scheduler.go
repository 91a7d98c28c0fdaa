// Package scheduler запускает попытки синхронизации по таймеру и по внешним
// событиям (wake).
//
// Попытки никогда не идут параллельно: таймер, Wake и SyncNow проходят через
// одну точку входа под мьютексом, и событие, пришедшее во время попытки, ждёт
// её завершения. Stop не ждёт и не отменяет текущую попытку.
//
// Попытка считается начатой, когда она прошла проверку stopped под s.mu.
// Stop берёт тот же мьютекс, поэтому после его возврата новых попыток нет,
// а уже начатые дожидается Wait.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/logger"
)

// DefaultInterval используется, если интервал опроса не положительный.
const DefaultInterval = 6 * time.Hour

// Trigger причина запуска попытки.
type Trigger string

const (
	TriggerStart  Trigger = "start"
	TriggerTimer  Trigger = "timer"
	TriggerWake   Trigger = "wake"
	TriggerManual Trigger = "manual"
)

// Attempter выполняет одну попытку синхронизации.
type Attempter interface {
	Attempt(ctx context.Context) engine.Outcome
}

// Observer получает итог каждой попытки; вызывается под мьютексом попыток.
type Observer func(trigger Trigger, outcome engine.Outcome)

// Scheduler владеет таймером опроса.
type Scheduler struct {
	attempter Attempter
	log       logger.Logger
	observe   Observer

	// run сериализует попытки.
	run sync.Mutex

	mu       sync.Mutex
	interval time.Duration
	ticker   *time.Ticker
	reset    chan time.Duration
	stop     chan struct{}
	started  bool
	stopped  bool
	ctx      context.Context

	// committed число попыток, прошедших проверку stopped.
	committed int
	wg        sync.WaitGroup
}

// New observer может быть nil.
func New(attempter Attempter, log logger.Logger, interval time.Duration, observer Observer) *Scheduler {
	return &Scheduler{
		attempter: attempter,
		log:       log,
		observe:   observer,
		interval:  interval,
	}
}

// Start запускает таймер, выполняет одну попытку сразу и затем срабатывает
// каждые interval. ctx передаётся в попытки; его отмена останавливает цикл.
// Повторный вызов ничего не делает.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.interval = s.normalize(s.interval)
	s.ticker = time.NewTicker(s.interval)
	s.reset = make(chan time.Duration, 1)
	s.stop = make(chan struct{})
	s.ctx = ctx
	s.log.Writef("Timer set to %s", FormatInterval(s.interval))
	s.wg.Add(1)
	s.mu.Unlock()

	s.trigger(TriggerStart)
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-s.stop:
			return
		case d := <-s.reset:
			s.ticker.Reset(d)
		case <-s.ticker.C:
			// тики во время долгой попытки отбрасываются таймером
			s.trigger(TriggerTimer)
		}
	}
}

// trigger единая точка входа для всех событий.
func (s *Scheduler) trigger(t Trigger) (engine.Outcome, bool) {
	s.run.Lock()
	defer s.run.Unlock()

	ctx, ok := s.begin()
	if !ok {
		return engine.Outcome{}, false
	}
	defer s.wg.Done()

	out := s.attempter.Attempt(ctx)
	if s.observe != nil {
		s.observe(t, out)
	}
	return out, true
}

// begin регистрирует попытку, если планировщик ещё не остановлен.
func (s *Scheduler) begin() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil, false
	}
	s.committed++
	s.wg.Add(1)
	return s.ctx, true
}

// Wake запрашивает внеочередную попытку и сразу возвращает управление.
// Если попытка уже идёт, новая выполнится после неё.
func (s *Scheduler) Wake() {
	if !s.Running() {
		return
	}
	go s.trigger(TriggerWake)
}

// SyncNow выполняет внеочередную попытку и ждёт её итога. false, если
// планировщик не запущен или остановлен.
func (s *Scheduler) SyncNow() (engine.Outcome, bool) {
	if !s.Running() {
		return engine.Outcome{}, false
	}
	return s.trigger(TriggerManual)
}

// Reset меняет интервал опроса работающего таймера.
func (s *Scheduler) Reset(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	interval = s.normalize(interval)
	if interval == s.interval {
		return
	}
	s.interval = interval
	s.log.Writef("Timer set to %s", FormatInterval(interval))
	if !s.started || s.stopped {
		return
	}
	// в канале не больше одного ожидающего значения: старое заменяется новым
	select {
	case <-s.reset:
	default:
	}
	s.reset <- interval
}

// Stop останавливает таймер. После возврата новые попытки не начинаются;
// текущая попытка завершается сама. Безопасен для вызова из любой горутины.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return
	}
	s.stopped = true
	s.ticker.Stop()
	close(s.stop)
}

// Wait ждёт завершения начатых попыток и цикла таймера после Stop.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Running true между Start и Stop.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.stopped
}

// Interval текущий интервал опроса.
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// normalize вызывается под s.mu.
func (s *Scheduler) normalize(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	s.log.Writef("Invalid poll interval %s, using %s", d, FormatInterval(DefaultInterval))
	return DefaultInterval
}
