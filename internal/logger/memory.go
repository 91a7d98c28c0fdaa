package logger

import (
	"fmt"
	"strings"
	"sync"
)

// Memory сохраняет сообщения в памяти. Используется в тестах.
type Memory struct {
	mu    sync.Mutex
	lines []string
	limit int
}

// NewMemory limit <= 0 означает без ограничения; иначе хранятся последние limit строк.
func NewMemory(limit int) *Memory {
	return &Memory{limit: limit}
}

func (m *Memory) Start() error {
	return nil
}

func (m *Memory) Write(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, message)
	if m.limit > 0 && len(m.lines) > m.limit {
		m.lines = append([]string(nil), m.lines[len(m.lines)-m.limit:]...)
	}
}

func (m *Memory) Writef(format string, args ...interface{}) {
	m.Write(fmt.Sprintf(format, args...))
}

// Lines копия сохранённых сообщений.
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// Contains true, если хотя бы одно сообщение содержит substr.
func (m *Memory) Contains(substr string) bool {
	for _, l := range m.Lines() {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Count число сообщений, содержащих substr.
func (m *Memory) Count(substr string) int {
	n := 0
	for _, l := range m.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}
