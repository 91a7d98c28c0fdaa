// Package engine одна попытка синхронизации: параметры, запрос к серверу,
// установка системного времени.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/shiwa/ntpsync/internal/clockadj"
	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/logger"
)

// TimeLayout формат времени в журнале.
const TimeLayout = "2006-01-02 15:04:05.000 -07:00"

// SettingsSource источник текущих параметров; каждый вызов возвращает копию.
type SettingsSource interface {
	Snapshot() config.Settings
}

// Querier получает время от сервера.
type Querier interface {
	Query(ctx context.Context, host string, port int) (time.Time, error)
}

// Engine выполняет попытки синхронизации. Повторов внутри попытки нет:
// следующая попытка запускается планировщиком.
type Engine struct {
	settings SettingsSource
	querier  Querier
	clock    clockadj.Clock
	log      logger.Logger
}

// New все зависимости обязательны.
func New(settings SettingsSource, querier Querier, clock clockadj.Clock, log logger.Logger) *Engine {
	return &Engine{settings: settings, querier: querier, clock: clock, log: log}
}

// Attempt выполняет одну попытку и никогда не паникует из-за ошибок сети или часов:
// каждая ошибка записывается в журнал и возвращается в Outcome.
func (e *Engine) Attempt(ctx context.Context) Outcome {
	out := e.Query(ctx)
	if out.Failure != FailureNone {
		return out
	}

	out.Stage = StageApplying
	if err := e.clock.SetUTC(out.Received); err != nil {
		e.log.Writef("Failed to set system time: %v", err)
		out.Failure = FailureApply
		out.Err = err
		return out
	}
	out.Applied = e.clock.Local()
	e.log.Writef("System time successfully set to: %s", out.Applied.Format(TimeLayout))
	return out
}

// Query первая половина Attempt: запрос времени без изменения часов.
func (e *Engine) Query(ctx context.Context) Outcome {
	s := e.settings.Snapshot()
	out := Outcome{
		Stage:   StageIdle,
		Server:  s.Server.Get(),
		Port:    s.Port.Get(),
		Started: time.Now(),
	}

	if strings.TrimSpace(out.Server) == "" {
		e.log.Write("NTP server not configured.")
		out.Failure = FailureConfigIncomplete
		return out
	}

	out.Stage = StageQuerying
	received, err := e.querier.Query(ctx, out.Server, out.Port)
	out.QueryDuration = time.Since(out.Started)
	if err != nil {
		e.log.Writef("Failed to retrieve time from NTP server: %v", err)
		out.Failure = FailureQuery
		out.Err = err
		return out
	}
	out.Received = received.UTC()
	out.Offset = out.Received.Sub(e.clock.UTC())
	e.log.Writef("Received NTP time from %s: %s", out.Server, out.Received.Format(TimeLayout))
	return out
}
