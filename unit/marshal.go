package unit

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// magic is the 4-byte header that every encoded unit starts with. The final
// byte doubles as the format version.
var magic = []byte{'G', 'N', 'T', 0x01}

// ErrBadMagic is returned by Unmarshal when the payload does not start with
// the unit magic header.
var ErrBadMagic = errors.New("unit: bad magic header")

// Marshal converts a Unit into its binary representation: the magic header
// followed by a JSON body.
func Marshal(u *Unit) ([]byte, error) {
	def, err := defFromUnit(u)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(def)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(magic)+len(body))
	out = append(out, magic...)
	out = append(out, body...)
	return out, nil
}

// Unmarshal converts a binary representation back into a Unit. The payload
// must start with the unit magic header.
func Unmarshal(data []byte) (*Unit, error) {
	if len(data) < len(magic) || !bytes.Equal(data[:len(magic)], magic) {
		return nil, ErrBadMagic
	}
	var def unitDef
	if err := json.Unmarshal(data[len(magic):], &def); err != nil {
		return nil, err
	}
	return unitFromDef(&def)
}

// Serialization types

type constantDef struct {
	Type string `json:"type"`
}

type boolConstantDef struct {
	Type  string `json:"type"`
	Value bool   `json:"value"`
}

type intConstantDef struct {
	Type  string `json:"type"`
	Value int64  `json:"value"`
}

type floatConstantDef struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type stringConstantDef struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type unitDef struct {
	Name         string            `json:"name"`
	Symbols      []string          `json:"symbols,omitempty"`
	Instructions []uint32          `json:"instructions"`
	Constants    []json.RawMessage `json:"constants"`
}

func defFromUnit(u *Unit) (*unitDef, error) {
	constants := make([]json.RawMessage, u.ConstantCount())
	for i := 0; i < u.ConstantCount(); i++ {
		data, err := marshalConstant(u.ConstantAt(i))
		if err != nil {
			return nil, err
		}
		constants[i] = data
	}

	symbols := make([]string, u.SymbolCount())
	for i := 0; i < u.SymbolCount(); i++ {
		symbols[i] = u.SymbolAt(i)
	}

	instructions := make([]uint32, u.InstructionCount())
	for i := 0; i < u.InstructionCount(); i++ {
		instructions[i] = u.InstructionAt(i)
	}

	return &unitDef{
		Name:         u.Name(),
		Symbols:      symbols,
		Instructions: instructions,
		Constants:    constants,
	}, nil
}

func unitFromDef(def *unitDef) (*Unit, error) {
	constants := make([]any, len(def.Constants))
	for i, data := range def.Constants {
		c, err := unmarshalConstant(data)
		if err != nil {
			return nil, err
		}
		constants[i] = c
	}
	return New(Params{
		Name:         def.Name,
		Constants:    constants,
		Symbols:      def.Symbols,
		Instructions: def.Instructions,
	}), nil
}

func marshalConstant(c any) (json.RawMessage, error) {
	switch v := c.(type) {
	case nil:
		return json.Marshal(constantDef{Type: "nil"})
	case bool:
		return json.Marshal(boolConstantDef{Type: "bool", Value: v})
	case int:
		return json.Marshal(intConstantDef{Type: "int", Value: int64(v)})
	case int64:
		return json.Marshal(intConstantDef{Type: "int", Value: v})
	case float32:
		return json.Marshal(floatConstantDef{Type: "float", Value: float64(v)})
	case float64:
		return json.Marshal(floatConstantDef{Type: "float", Value: v})
	case string:
		return json.Marshal(stringConstantDef{Type: "string", Value: v})
	default:
		return nil, fmt.Errorf("unknown constant type: %T", c)
	}
}

func unmarshalConstant(data json.RawMessage) (any, error) {
	var def constantDef
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	switch def.Type {
	case "nil":
		return nil, nil
	case "bool":
		var d boolConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "int":
		var d intConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		// Returned as int64 so round-trips are stable regardless of the
		// platform int width used when the unit was built.
		return d.Value, nil
	case "float":
		var d floatConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	case "string":
		var d stringConstantDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d.Value, nil
	default:
		return nil, fmt.Errorf("unknown constant type: %s", def.Type)
	}
}
