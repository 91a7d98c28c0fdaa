package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	daem "github.com/takama/daemon"

	"github.com/shiwa/ntpsync/internal/config"
	"github.com/shiwa/ntpsync/pkg/clocksync"
)

// commandline общее состояние команд.
type commandline struct {
	v       *viper.Viper
	cfgFile string
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	cl := &commandline{v: viper.New(), out: out}
	d := config.DefaultOptions()

	cmd := &cobra.Command{
		Use:          "ntpsync",
		Short:        "Synchronizes the system clock with an NTP server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cl.initConfig()
		},
		RunE: cl.run,
	}
	cmd.SetOut(out)

	f := cmd.PersistentFlags()
	f.StringVar(&cl.cfgFile, "config", "", "config file (default ./ntpsync.yaml or /etc/ntpsync/ntpsync.yaml)")
	f.String("service-name", d.ServiceName, "service name; selects Services/<name>/Parameters")
	f.String("description", d.Description, "service description used on install")
	f.String("backend", d.Backend, "parameters store: file or registry")
	f.String("params-file", d.ParamsFile, "YAML parameters tree for the file backend")
	f.String("log", d.Log, "log target: console or system")
	f.Bool("quiet", d.Quiet, "suppress console output")
	f.Duration("timeout", d.Timeout, "NTP request timeout")
	f.String("http-addr", d.HTTPAddr, "status API listen address, empty disables it")
	config.SetDefaults(cl.v, d)
	_ = cl.v.BindPFlags(f)

	cmd.AddCommand(
		cl.onceCmd(),
		cl.settingsCmd(),
		cl.serviceCmd(),
		versionCmd(),
	)
	return cmd
}

// initConfig файл конфигурации и переменные окружения NTPSYNC_*.
func (cl *commandline) initConfig() error {
	if cl.cfgFile != "" {
		cl.v.SetConfigFile(cl.cfgFile)
	} else {
		cl.v.SetConfigName("ntpsync")
		cl.v.AddConfigPath(".")
		cl.v.AddConfigPath("/etc/ntpsync")
	}
	cl.v.SetEnvPrefix("NTPSYNC")
	cl.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cl.v.AutomaticEnv()
	if err := cl.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cl.cfgFile != "" {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func (cl *commandline) options() (*config.Options, error) {
	return config.FromViper(cl.v)
}

func (cl *commandline) app() (*clocksync.App, error) {
	o, err := cl.options()
	if err != nil {
		return nil, err
	}
	return clocksync.New(o, cl.out)
}

// daemon обёртка над системным менеджером сервисов.
func (cl *commandline) daemon(o *config.Options) (daem.Daemon, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return daem.New(o.ServiceName, o.Description, exe)
}

// run запуск сервиса: интерактивно или под управлением менеджера сервисов.
func (cl *commandline) run(cmd *cobra.Command, args []string) error {
	a, err := cl.app()
	if err != nil {
		return err
	}
	d, err := cl.daemon(a.Options)
	if err != nil {
		return err
	}
	_, err = d.Run(a)
	return err
}
