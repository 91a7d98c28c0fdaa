package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/scheduler"
)

func (cl *commandline) onceCmd() *cobra.Command {
	var apply bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Query the NTP server once and print its time",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cl.app()
			if err != nil {
				return err
			}
			out := a.Once(context.Background(), apply)
			if !out.Succeeded() {
				if out.Err == nil {
					return fmt.Errorf("an error occurred: %s", out.Failure)
				}
				return fmt.Errorf("an error occurred: %w", out.Err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Current date and time from NTP server: %s\n",
				out.Received.Local().Format(engine.TimeLayout))
			fmt.Fprintf(cmd.OutOrStdout(), "Offset: %s\n", out.Offset)
			fmt.Fprintf(cmd.OutOrStdout(), "Poll interval: %s\n",
				scheduler.FormatInterval(a.Holder.Snapshot().PollInterval()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&apply, "apply", false, "also set the system clock")
	return cmd
}
