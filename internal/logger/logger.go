// Package logger единый вывод сообщений сервиса с префиксом имени сервиса.
// Запись в журнал выполняется по возможности: ошибки приёмника не
// возвращаются вызывающему коду.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger приёмник сообщений сервиса.
type Logger interface {
	// Start готовит приёмник к записи (например, регистрирует источник событий).
	Start() error
	Write(message string)
	Writef(format string, args ...interface{})
}

// Console пишет сообщения вида "<name>: <message>" в out.
type Console struct {
	// Quiet при true подавляет вывод.
	Quiet bool

	mu  sync.Mutex
	log *log.Logger
}

// NewConsole создаёт консольный логгер. out == nil означает os.Stdout.
func NewConsole(name string, out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{log: log.New(out, name+": ", 0)}
}

// Start консольному логгеру подготовка не нужна.
func (c *Console) Start() error {
	return nil
}

func (c *Console) Write(message string) {
	if c.Quiet {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.log.Output(2, message)
}

func (c *Console) Writef(format string, args ...interface{}) {
	c.Write(fmt.Sprintf(format, args...))
}

// Nop отбрасывает все сообщения.
type Nop struct{}

func (Nop) Start() error                  { return nil }
func (Nop) Write(string)                  {}
func (Nop) Writef(string, ...interface{}) {}

// Multi рассылает сообщения нескольким приёмникам.
type Multi []Logger

// Start запускает все приёмники и возвращает первую ошибку.
func (m Multi) Start() error {
	var first error
	for _, l := range m {
		if err := l.Start(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Write(message string) {
	for _, l := range m {
		l.Write(message)
	}
}

func (m Multi) Writef(format string, args ...interface{}) {
	m.Write(fmt.Sprintf(format, args...))
}
