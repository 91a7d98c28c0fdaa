package main

import (
	"fmt"

	"github.com/spf13/cobra"
	daem "github.com/takama/daemon"

	"github.com/shiwa/ntpsync/internal/config"
)

func (cl *commandline) serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the ntpsync system service",
	}
	actions := []struct {
		use, short string
		do         func(d daem.Daemon, o *config.Options) (string, error)
	}{
		{"install", "Install the system service", func(d daem.Daemon, o *config.Options) (string, error) {
			return d.Install(installArgs(o)...)
		}},
		{"remove", "Remove the system service", func(d daem.Daemon, _ *config.Options) (string, error) { return d.Remove() }},
		{"start", "Start the system service", func(d daem.Daemon, _ *config.Options) (string, error) { return d.Start() }},
		{"stop", "Stop the system service", func(d daem.Daemon, _ *config.Options) (string, error) { return d.Stop() }},
		{"status", "Show the system service status", func(d daem.Daemon, _ *config.Options) (string, error) { return d.Status() }},
	}
	for _, a := range actions {
		a := a
		cmd.AddCommand(&cobra.Command{
			Use:   a.use,
			Short: a.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				o, err := cl.options()
				if err != nil {
					return err
				}
				d, err := cl.daemon(o)
				if err != nil {
					return err
				}
				msg, err := a.do(d, o)
				if msg != "" {
					fmt.Fprintln(cmd.OutOrStdout(), msg)
				}
				return err
			},
		})
	}
	return cmd
}

// installArgs аргументы, с которыми менеджер сервисов запускает ntpsync.
func installArgs(o *config.Options) []string {
	args := []string{
		"--service-name", o.ServiceName,
		"--backend", o.Backend,
		"--log", config.LogSystem,
		"--timeout", o.Timeout.String(),
	}
	if o.Backend == config.BackendFile {
		args = append(args, "--params-file", o.ParamsFile)
	}
	if o.HTTPAddr != "" {
		args = append(args, "--http-addr", o.HTTPAddr)
	}
	return args
}
