package main

import (
	"github.com/spf13/cobra"
)

func (cl *commandline) settingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Load the synchronization parameters and print them with diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := cl.app()
			if err != nil {
				return err
			}
			a.LoadSettings()
			return nil
		},
	}
}
