package graph

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NetDef is the description of a graph: a name and an ordered list of operators.
type NetDef struct {
	Name string         `yaml:"name"`
	Op   []*OperatorDef `yaml:"op"`
}

// OperatorDef describes one operator instance.
type OperatorDef struct {
	Name   string      `yaml:"name,omitempty"`
	Type   string      `yaml:"type"`
	Input  []string    `yaml:"input,omitempty"`
	Output []string    `yaml:"output,omitempty"`
	Arg    []*Argument `yaml:"arg,omitempty"`
}

// Argument is a named operator argument holding one of the supported value kinds.
type Argument struct {
	Name    string    `yaml:"name"`
	F       *float64  `yaml:"f,omitempty"`
	I       *int64    `yaml:"i,omitempty"`
	S       *string   `yaml:"s,omitempty"`
	Floats  []float64 `yaml:"floats,omitempty"`
	Ints    []int64   `yaml:"ints,omitempty"`
	Strings []string  `yaml:"strings,omitempty"`
}

func ParseNetDef(bs []byte) (*NetDef, error) {
	var def NetDef
	if err := yaml.Unmarshal(bs, &def); err != nil {
		return nil, errors.Wrap(err, "parse net")
	}
	for i, op := range def.Op {
		if op == nil || op.Type == "" {
			return nil, errors.Errorf("parse net: operator #%d has no type", i)
		}
	}
	return &def, nil
}

func LoadNetDef(filename string) (*NetDef, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	def, err := ParseNetDef(bs)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", filename)
	}
	return def, nil
}

// Encode returns the YAML form of def.
func (def *NetDef) Encode() ([]byte, error) {
	return yaml.Marshal(def)
}

// FindArg returns the argument named name, or nil.
func (def *OperatorDef) FindArg(name string) *Argument {
	for _, a := range def.Arg {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// SetArg replaces or appends the argument a.
func (def *OperatorDef) SetArg(a *Argument) {
	for i, b := range def.Arg {
		if b.Name == a.Name {
			def.Arg[i] = a
			return
		}
	}
	def.Arg = append(def.Arg, a)
}

// DisplayName returns the name of the operator, or its first output.
func (def *OperatorDef) DisplayName() string {
	if def.Name != "" {
		return def.Name
	}
	if len(def.Output) > 0 {
		return def.Output[0]
	}
	return ""
}

// Find returns the first operator whose DisplayName is name, or nil.
func (def *NetDef) Find(name string) *OperatorDef {
	for _, op := range def.Op {
		if op.DisplayName() == name {
			return op
		}
	}
	return nil
}
