package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/unit"
)

func newInspectCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show the contents of a packed unit file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			u, err := unit.Unmarshal(data)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(reportUnit(u))
			}
			printUnit(u)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}
