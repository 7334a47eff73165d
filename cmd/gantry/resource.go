package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newResourceCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "resource MODULE NAME",
		Short: "Read a resource from a module's own source",
		Long: `Read a resource from a module's own source. Resources are private:
unlike symbols, they are never resolved through dependencies.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close(ctx)

			bs, err := sess.rt.LookupOwnResource(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			data, err := bs.ReadAll(ctx)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return err
				}
				fmt.Printf("wrote %d bytes to %s\n", len(data), outPath)
				return nil
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write resource bytes to file")
	return cmd
}
