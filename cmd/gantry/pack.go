package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gantry-io/gantry/loader"
	"github.com/gantry-io/gantry/unit"
)

// packDef is the YAML description of a unit to pack.
type packDef struct {
	Name         string   `yaml:"name"`
	Symbols      []string `yaml:"symbols"`
	Constants    []any    `yaml:"constants"`
	Instructions []uint32 `yaml:"instructions"`
}

func newPackCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "pack FILE",
		Short: "Pack a YAML unit definition into a unit file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var def packDef
			if err := yaml.Unmarshal(data, &def); err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}
			if def.Name == "" {
				return fmt.Errorf("%s: unit name is required", args[0])
			}
			u := unit.New(unit.Params{
				Name:         def.Name,
				Symbols:      def.Symbols,
				Constants:    def.Constants,
				Instructions: def.Instructions,
			})
			packed, err := unit.Marshal(u)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = defaultPackPath(args[0])
			}
			if err := os.WriteFile(outPath, packed, 0o644); err != nil {
				return err
			}
			fmt.Printf("packed %s (%d bytes) to %s\n", def.Name, len(packed), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output unit file")
	return cmd
}

func defaultPackPath(in string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(in, ext) {
			return strings.TrimSuffix(in, ext) + loader.UnitExt
		}
	}
	return in + loader.UnitExt
}
