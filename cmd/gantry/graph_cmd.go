package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gantry-io/gantry/graph"
	"github.com/gantry-io/gantry/manifest"
)

func newGraphCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect the module dependency graph",
	}
	cmd.AddCommand(newGraphValidateCmd(a), newGraphOrderCmd(a))
	return cmd
}

func newGraphValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest graph for dependency cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			if err := g.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s %d modules, no cycles\n", color.GreenString("ok:"), g.Len())
			return nil
		},
	}
}

func newGraphOrderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print a dependencies-first activation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.loadGraph()
			if err != nil {
				return err
			}
			order, err := g.LoadOrder()
			if err != nil {
				return err
			}
			for i, id := range order {
				fmt.Printf("%3d. %s\n", i+1, id)
			}
			return nil
		},
	}
}

func (a *app) loadGraph() (*graph.Graph, error) {
	manifests, err := a.loadManifests()
	if err != nil {
		return nil, err
	}
	return manifest.Graph(manifests)
}
