package engine

import (
	"time"
)

// Stage стадия попытки синхронизации.
type Stage int

const (
	StageIdle Stage = iota
	StageQuerying
	StageApplying
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageQuerying:
		return "querying"
	case StageApplying:
		return "applying"
	}
	return "unknown"
}

// Failure причина неудачной попытки.
type Failure int

const (
	FailureNone Failure = iota
	// FailureConfigIncomplete не задан адрес сервера.
	FailureConfigIncomplete
	// FailureQuery ошибка обмена с сервером или разбора ответа.
	FailureQuery
	// FailureApply ошибка установки системного времени.
	FailureApply
)

func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureConfigIncomplete:
		return "config_incomplete"
	case FailureQuery:
		return "query_failed"
	case FailureApply:
		return "apply_failed"
	}
	return "unknown"
}

// Outcome итог одной попытки. Stage указывает стадию, на которой попытка
// завершилась; для успешной попытки это StageApplying.
type Outcome struct {
	Stage   Stage
	Failure Failure
	Err     error

	Server string
	Port   int

	Started       time.Time
	QueryDuration time.Duration
	// Received время сервера в UTC.
	Received time.Time
	// Offset разница между временем сервера и системными часами до установки.
	Offset time.Duration
	// Applied системное локальное время сразу после установки.
	Applied time.Time
}

// Succeeded true, если время получено и установлено.
func (o Outcome) Succeeded() bool {
	return o.Failure == FailureNone
}

// Result "succeeded" или "failed".
func (o Outcome) Result() string {
	if o.Succeeded() {
		return "succeeded"
	}
	return "failed"
}
