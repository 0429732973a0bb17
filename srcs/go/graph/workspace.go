package graph

import (
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/lsds/kungfu-graph/srcs/go/tensor"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
)

// GroupFactoryBlob is the reserved name under which the harness binds the group factory.
const GroupFactoryBlob = `__kungfu_group_factory__`

const reservedPrefix = `__`

// IsReserved reports whether name can not be written by operators.
func IsReserved(name string) bool {
	return name == "" || strings.HasPrefix(name, reservedPrefix)
}

var (
	ErrBlobNotFound = errors.New("blob not found")
	ErrNotTensor    = errors.New("blob is not a tensor")
)

// Workspace maps blob names to values. A name holds one value at a time.
type Workspace struct {
	mu    sync.Mutex
	blobs map[string]any
}

func NewWorkspace() *Workspace {
	return &Workspace{blobs: make(map[string]any)}
}

// Set binds v to name, replacing the previous value.
func (ws *Workspace) Set(name string, v any) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.blobs[name] = v
}

func (ws *Workspace) Get(name string) (any, bool) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	v, ok := ws.blobs[name]
	return v, ok
}

func (ws *Workspace) Has(name string) bool {
	_, ok := ws.Get(name)
	return ok
}

// Tensor returns the tensor bound to name.
func (ws *Workspace) Tensor(name string) (*tensor.Tensor, error) {
	v, ok := ws.Get(name)
	if !ok {
		return nil, errors.Wrapf(ErrBlobNotFound, "%q", name)
	}
	t, ok := v.(*tensor.Tensor)
	if !ok {
		return nil, errors.Wrapf(ErrNotTensor, "%q holds %T", name, v)
	}
	return t, nil
}

// Names returns the bound names in lexical order.
func (ws *Workspace) Names() []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	var names []string
	for name := range ws.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every bound value that is an io.Closer and clears the workspace.
func (ws *Workspace) Close() error {
	ws.mu.Lock()
	blobs := ws.blobs
	ws.blobs = make(map[string]any)
	ws.mu.Unlock()
	var names []string
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	var errs []error
	for _, name := range names {
		if c, ok := blobs[name].(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, errors.Wrapf(err, "close %q", name))
			}
		}
	}
	return utils.MergeErrors(errs, "Workspace::Close")
}
