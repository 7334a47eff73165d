package main

import (
	"fmt"

	"github.com/fatih/color"
	prettyjson "github.com/hokaccha/go-prettyjson"

	"github.com/gantry-io/gantry/unit"
)

// unitReport is the JSON form of a resolved unit.
type unitReport struct {
	Name         string   `json:"name"`
	Symbols      []string `json:"symbols,omitempty"`
	Constants    []any    `json:"constants,omitempty"`
	Instructions int      `json:"instructions"`
}

func reportUnit(u *unit.Unit) unitReport {
	r := unitReport{
		Name:         u.Name(),
		Symbols:      u.Symbols(),
		Instructions: u.InstructionCount(),
	}
	for i := 0; i < u.ConstantCount(); i++ {
		r.Constants = append(r.Constants, u.ConstantAt(i))
	}
	return r
}

func printJSON(v any) error {
	formatter := prettyjson.NewFormatter()
	formatter.DisabledColor = color.NoColor
	data, err := formatter.Marshal(v)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printUnit(u *unit.Unit) {
	stats := u.Stats()
	fmt.Println(color.New(color.FgCyan, color.Bold).Sprintf("unit %s", u.Name()))
	fmt.Printf("  constants:    %d\n", stats.ConstantCount)
	fmt.Printf("  symbols:      %d\n", stats.SymbolCount)
	fmt.Printf("  instructions: %d\n", stats.InstructionCount)
	for _, sym := range u.Symbols() {
		fmt.Printf("    %s\n", sym)
	}
}
