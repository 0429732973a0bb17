package graph

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Operator is an instance of an operator bound to a workspace.
type Operator interface {
	Def() *OperatorDef
	Run(ctx context.Context) error
}

// Collective is an operator that coordinates with the same operator of every peer.
// Its first input is the group.
type Collective interface {
	Operator
	GroupInput() string
}

// GroupCreator is an operator that creates the group and binds it to its first output.
type GroupCreator interface {
	Operator
	CreatesGroup()
}

// GroupHandle is the part of a group the executor can validate.
type GroupHandle interface {
	ID() string
	Rank() int
	Size() int
}

// Constructor creates an operator from def. Argument errors are reported here, before execution.
type Constructor func(def *OperatorDef, ws *Workspace) (Operator, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register binds a constructor to an operator type. It panics if the type is already registered.
func Register(typ string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[typ]; ok {
		panic(errors.Errorf("operator %s registered twice", typ))
	}
	registry[typ] = ctor
}

func lookup(typ string) (Constructor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ctor, ok := registry[typ]
	return ctor, ok
}

// Registered reports whether typ has a constructor.
func Registered(typ string) bool {
	_, ok := lookup(typ)
	return ok
}

// Base holds the definition and workspace of an operator.
type Base struct {
	def *OperatorDef
	ws  *Workspace
}

func NewBase(def *OperatorDef, ws *Workspace) Base {
	return Base{def: def, ws: ws}
}

func (b Base) Def() *OperatorDef {
	return b.def
}

func (b Base) Workspace() *Workspace {
	return b.ws
}

var errArity = errors.New("wrong number of inputs or outputs")

// CheckArity checks the number of inputs and outputs of def. A negative bound is not checked.
func CheckArity(def *OperatorDef, minIn, maxIn, nOut int) error {
	n := len(def.Input)
	if n < minIn || (maxIn >= 0 && n > maxIn) {
		return errors.Wrapf(errArity, "%d inputs", n)
	}
	if nOut >= 0 && len(def.Output) != nOut {
		return errors.Wrapf(errArity, "%d outputs", len(def.Output))
	}
	return nil
}
