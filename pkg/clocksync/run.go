// Package clocksync собирает сервис синхронизации времени из параметров процесса
// и запускает его: как daemon.Executable, до отмены контекста или один раз.
package clocksync

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/shiwa/ntpsync/internal/clockadj"
	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/httpapi"
	"github.com/shiwa/ntpsync/internal/logger"
	"github.com/shiwa/ntpsync/internal/metrics"
	"github.com/shiwa/ntpsync/internal/ntp"
	"github.com/shiwa/ntpsync/internal/scheduler"
	"github.com/shiwa/ntpsync/internal/service"
)

// App все компоненты сервиса. Значения по умолчанию выбираются только здесь.
type App struct {
	Options *config.Options
	Log     logger.Logger
	Clock   clockadj.Clock
	Client  *ntp.Client
	Holder  *config.Holder
	Engine  *engine.Engine
	Metrics *metrics.Collection
	Service *service.Service
	API     *httpapi.Server

	openStore func() (config.Key, error)
}

// Option заменяет компонент по умолчанию.
type Option func(a *App)

// WithClock часы вместо системных.
func WithClock(c clockadj.Clock) Option {
	return func(a *App) { a.Clock = c }
}

// WithLogger журнал вместо выбранного по параметрам.
func WithLogger(l logger.Logger) Option {
	return func(a *App) { a.Log = l }
}

// New собирает App; out получает консольный журнал (nil означает stdout).
func New(opts *config.Options, out io.Writer, options ...Option) (*App, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Options: opts,
		Log:     NewLogger(opts, out),
		Clock:   clockadj.System(),
		Client:  ntp.NewClient(&net.Dialer{}, opts.Timeout),
		Holder:  config.NewHolder(config.NewSettings()),
		Metrics: metrics.New(),
	}
	for _, o := range options {
		o(a)
	}
	a.openStore = func() (config.Key, error) { return OpenStore(opts) }
	a.Engine = engine.New(a.Holder, a.Client, a.Clock, a.Log)
	a.Service = service.New(service.Config{
		Name:      opts.ServiceName,
		Log:       a.Log,
		Reporter:  service.LogReporter{Log: a.Log},
		Settings:  a.Holder,
		Load:      a.LoadSettings,
		Attempter: a.Engine,
		Observer:  a.observe,
	})
	if opts.HTTPAddr != "" {
		a.API = httpapi.NewServer(httpapi.NewRouter(a.Service, a.Metrics.Handler()), a.Log)
	}
	return a, nil
}

// NewLogger журнал по параметрам процесса.
func NewLogger(opts *config.Options, out io.Writer) logger.Logger {
	if opts.Log == config.LogSystem {
		return logger.NewSystem(opts.ServiceName)
	}
	c := logger.NewConsole(opts.ServiceName, out)
	c.Quiet = opts.Quiet
	return c
}

// OpenStore открывает хранилище параметров выбранного типа.
func OpenStore(opts *config.Options) (config.Key, error) {
	switch opts.Backend {
	case config.BackendRegistry:
		return config.OpenLocalMachine()
	case config.BackendFile:
		return config.LoadYAMLFile(opts.ParamsFile)
	}
	return nil, fmt.Errorf("unknown backend %q", opts.Backend)
}

// LoadSettings читает параметры; если хранилище не открывается, используются
// значения по умолчанию.
func (a *App) LoadSettings() config.Settings {
	root, err := a.openStore()
	if err != nil {
		a.Log.Writef("Cannot open %s parameters: %v", a.Options.Backend, err)
		root = config.EmptyKey()
	}
	defer root.Close()
	return config.NewLoader(a.Log, config.DefaultSource).Load(root, a.Options.ServiceName)
}

// observe передаёт итог каждой попытки в метрики.
func (a *App) observe(t scheduler.Trigger, out engine.Outcome) {
	a.Metrics.PollInterval.Set(a.Holder.Snapshot().PollInterval().Seconds())
	a.Metrics.Observe(t, out)
}

// Start daemon.Executable: неблокирующий запуск.
func (a *App) Start() {
	a.startAPI()
	a.Service.Start()
}

// Stop daemon.Executable: неблокирующая остановка.
func (a *App) Stop() {
	a.Service.Stop()
	a.stopAPI()
}

// Run daemon.Executable: блокируется до сигнала остановки.
func (a *App) Run() {
	a.startAPI()
	a.Service.Run()
	a.stopAPI()
}

// RunDaemon запускает сервис и ждёт отмены ctx или остановки сервиса.
func RunDaemon(ctx context.Context, a *App) error {
	a.Start()
	select {
	case <-ctx.Done():
		a.Stop()
		return ctx.Err()
	case <-a.Service.Done():
		a.stopAPI()
		return nil
	}
}

func (a *App) startAPI() {
	if a.API == nil || a.API.Addr() != nil {
		return
	}
	if err := a.API.Start(a.Options.HTTPAddr); err != nil {
		a.Log.Writef("HTTP API disabled: %v", err)
	}
}

func (a *App) stopAPI() {
	if a.API == nil || a.API.Addr() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.API.Shutdown(ctx)
}
