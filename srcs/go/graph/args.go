package graph

import (
	"github.com/pkg/errors"
)

var ErrInvalidArgument = errors.New("invalid argument")

// ArgHelper reads typed arguments of an operator with defaults.
type ArgHelper struct {
	def *OperatorDef
}

func Args(def *OperatorDef) ArgHelper {
	return ArgHelper{def: def}
}

func (h ArgHelper) Has(name string) bool {
	return h.def.FindArg(name) != nil
}

func (h ArgHelper) wrong(name, kind string) error {
	return errors.Wrapf(ErrInvalidArgument, "%s is not %s", name, kind)
}

func (h ArgHelper) Int(name string, def int) (int, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return def, nil
	}
	if a.I == nil {
		return 0, h.wrong(name, "an int")
	}
	return int(*a.I), nil
}

// Float returns a float argument. An int value is accepted.
func (h ArgHelper) Float(name string, def float64) (float64, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return def, nil
	}
	switch {
	case a.F != nil:
		return *a.F, nil
	case a.I != nil:
		return float64(*a.I), nil
	}
	return 0, h.wrong(name, "a float")
}

func (h ArgHelper) String(name string, def string) (string, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return def, nil
	}
	if a.S == nil {
		return "", h.wrong(name, "a string")
	}
	return *a.S, nil
}

func (h ArgHelper) Ints(name string) ([]int, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return nil, nil
	}
	if a.Ints == nil {
		return nil, h.wrong(name, "an int list")
	}
	xs := make([]int, len(a.Ints))
	for i, x := range a.Ints {
		xs[i] = int(x)
	}
	return xs, nil
}

func (h ArgHelper) Floats(name string) ([]float64, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return nil, nil
	}
	if a.Floats == nil {
		return nil, h.wrong(name, "a float list")
	}
	return a.Floats, nil
}

func (h ArgHelper) Strings(name string) ([]string, error) {
	a := h.def.FindArg(name)
	if a == nil {
		return nil, nil
	}
	if a.Strings == nil {
		return nil, h.wrong(name, "a string list")
	}
	return a.Strings, nil
}

func IntArg(name string, x int) *Argument {
	i := int64(x)
	return &Argument{Name: name, I: &i}
}

func FloatArg(name string, x float64) *Argument {
	return &Argument{Name: name, F: &x}
}

func StringArg(name string, s string) *Argument {
	return &Argument{Name: name, S: &s}
}

func IntsArg(name string, xs ...int) *Argument {
	is := make([]int64, len(xs))
	for i, x := range xs {
		is[i] = int64(x)
	}
	return &Argument{Name: name, Ints: is}
}
