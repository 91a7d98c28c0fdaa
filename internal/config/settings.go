package config

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Значения по умолчанию, если хранилище параметров недоступно на любом шаге.
const (
	DefaultServer            = "pool.ntp.org"
	DefaultPort              = 123
	DefaultPollIntervalHours = 6
)

// MaxPollIntervalHours наибольший интервал опроса, который ещё помещается в time.Duration.
const MaxPollIntervalHours = math.MaxInt64 / int64(time.Hour)

// ValidPollIntervalHours true для значений 1..MaxPollIntervalHours.
func ValidPollIntervalHours(hours int) bool {
	return hours >= 1 && int64(hours) <= MaxPollIntervalHours
}

// TrackedValue значение параметра, которое помнит, задано ли оно явно и откуда.
type TrackedValue[T any] struct {
	value   T
	source  string
	changed bool
}

// NewTrackedValue значение по умолчанию без источника.
func NewTrackedValue[T any](def T) TrackedValue[T] {
	return TrackedValue[T]{value: def}
}

// Get текущее значение.
func (v TrackedValue[T]) Get() T {
	return v.value
}

// Set перезаписывает значение, запоминает источник и помечает как изменённое.
func (v *TrackedValue[T]) Set(value T, source string) {
	v.value = value
	v.source = source
	v.changed = true
}

// Changed true, если значение задано через Set.
func (v TrackedValue[T]) Changed() bool {
	return v.changed
}

// Source метка последнего источника; пустая строка для значения по умолчанию.
func (v TrackedValue[T]) Source() string {
	return v.source
}

// String "{value}" или "{value} (default)", плюс " <source>" если источник известен.
func (v TrackedValue[T]) String() string {
	s := fmt.Sprint(v.value)
	if !v.changed {
		s += " (default)"
	}
	if v.source != "" {
		s += " <" + v.source + ">"
	}
	return s
}

// Settings параметры синхронизации. Копия Settings независима от оригинала,
// поэтому снимок можно безопасно передавать в попытку синхронизации.
type Settings struct {
	Server            TrackedValue[string]
	Port              TrackedValue[int]
	PollIntervalHours TrackedValue[int]
}

// NewSettings параметры со значениями по умолчанию.
func NewSettings() Settings {
	return Settings{
		Server:            NewTrackedValue(DefaultServer),
		Port:              NewTrackedValue(DefaultPort),
		PollIntervalHours: NewTrackedValue(DefaultPollIntervalHours),
	}
}

// PollInterval интервал опроса как time.Duration. Для значения вне
// 1..MaxPollIntervalHours возвращает 0, планировщик заменит его интервалом по умолчанию.
func (s Settings) PollInterval() time.Duration {
	hours := s.PollIntervalHours.Get()
	if !ValidPollIntervalHours(hours) {
		return 0
	}
	return time.Duration(hours) * time.Hour
}

// String блок из трёх строк, по одной на параметр.
func (s Settings) String() string {
	return fmt.Sprintf("Server: %s\nPort: %s\nPollIntervalHours: %s\n",
		s.Server, s.Port, s.PollIntervalHours)
}

// Holder хранит текущие Settings для конкурентного чтения и перезагрузки.
type Holder struct {
	mu       sync.RWMutex
	settings Settings
}

// NewHolder создаёт Holder с начальным снимком.
func NewHolder(s Settings) *Holder {
	return &Holder{settings: s}
}

// Snapshot копия текущих параметров.
func (h *Holder) Snapshot() Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}

// Replace атомарно подменяет параметры и возвращает предыдущие.
func (h *Holder) Replace(s Settings) Settings {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.settings
	h.settings = s
	return prev
}
