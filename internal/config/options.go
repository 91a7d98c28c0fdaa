// Package config параметры процесса (флаги, файл, окружение) и параметры
// синхронизации, читаемые из иерархического хранилища.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Хранилища параметров синхронизации.
const (
	BackendFile     = "file"
	BackendRegistry = "registry"
)

// Приёмники журнала.
const (
	LogConsole = "console"
	LogSystem  = "system"
)

// Options параметры процесса. Заполняются из флагов, файла ntpsync.yaml и
// переменных окружения NTPSYNC_*.
type Options struct {
	ServiceName string        `mapstructure:"service-name"`
	Description string        `mapstructure:"description"`
	Backend     string        `mapstructure:"backend"`
	ParamsFile  string        `mapstructure:"params-file"`
	Log         string        `mapstructure:"log"`
	Quiet       bool          `mapstructure:"quiet"`
	Timeout     time.Duration `mapstructure:"timeout"`
	HTTPAddr    string        `mapstructure:"http-addr"`
}

// DefaultOptions параметры по умолчанию для текущей платформы.
func DefaultOptions() *Options {
	o := &Options{
		ServiceName: "NtpService",
		Description: "Ntp Service",
		Backend:     BackendFile,
		ParamsFile:  "/etc/ntpsync/parameters.yaml",
		Log:         LogConsole,
		Timeout:     5 * time.Second,
	}
	if runtime.GOOS == "windows" {
		o.Backend = BackendRegistry
		o.ParamsFile = ""
	}
	return o
}

// SetDefaults регистрирует значения по умолчанию в v.
func SetDefaults(v *viper.Viper, o *Options) {
	v.SetDefault("service-name", o.ServiceName)
	v.SetDefault("description", o.Description)
	v.SetDefault("backend", o.Backend)
	v.SetDefault("params-file", o.ParamsFile)
	v.SetDefault("log", o.Log)
	v.SetDefault("quiet", o.Quiet)
	v.SetDefault("timeout", o.Timeout)
	v.SetDefault("http-addr", o.HTTPAddr)
}

// FromViper собирает Options из v и проверяет их.
func FromViper(v *viper.Viper) (*Options, error) {
	o := DefaultOptions()
	err := v.Unmarshal(o, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	applyDefaults(o)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate проверяет значения, которые нельзя заменить значением по умолчанию.
func (o *Options) Validate() error {
	switch o.Backend {
	case BackendFile:
		if o.ParamsFile == "" {
			return fmt.Errorf("backend %q requires params-file", o.Backend)
		}
	case BackendRegistry:
	default:
		return fmt.Errorf("unknown backend %q", o.Backend)
	}
	switch o.Log {
	case LogConsole, LogSystem:
	default:
		return fmt.Errorf("unknown log target %q", o.Log)
	}
	return nil
}

func applyDefaults(o *Options) {
	d := DefaultOptions()
	if o.ServiceName == "" {
		o.ServiceName = d.ServiceName
	}
	if o.Description == "" {
		o.Description = d.Description
	}
	if o.Backend == "" {
		o.Backend = d.Backend
	}
	if o.Log == "" {
		o.Log = d.Log
	}
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
}
