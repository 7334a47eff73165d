package main

import (
	"github.com/spf13/cobra"
)

func newResolveCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "resolve MODULE SYMBOL",
		Short: "Resolve a symbol through a module and its dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close(ctx)

			u, err := sess.rt.LookupSymbol(ctx, args[0], args[1])
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
