// Package collective implements the operators that coordinate with the same
// operator running in every other process of a group.
package collective

import (
	"context"

	"github.com/lsds/kungfu-graph/srcs/go/graph"
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/peer"
	"github.com/pkg/errors"
)

// Group is a communication group of a fixed set of processes.
type Group interface {
	ID() string
	Rank() int
	Size() int
	Broadcast(w kb.Workspace, root int) error
	Reduce(w kb.Workspace, root int) error
	AllGather(w kb.Workspace) error
	AllReduce(w kb.Workspace) error
	Barrier() error
	Close() error
}

// GroupFactory creates the group of all processes. CreateGroup is collective.
type GroupFactory interface {
	CreateGroup(ctx context.Context) (Group, error)
}

type GroupFactoryFunc func(ctx context.Context) (Group, error)

func (f GroupFactoryFunc) CreateGroup(ctx context.Context) (Group, error) { return f(ctx) }

// BindFactory binds f to the reserved name read by CreateCommonWorld.
func BindFactory(ws *graph.Workspace, f GroupFactory) {
	ws.Set(graph.GroupFactoryBlob, f)
}

// NewPeerFactory returns a GroupFactory creating groups over the transport of p.
func NewPeerFactory(p *peer.Peer) GroupFactory {
	return GroupFactoryFunc(func(ctx context.Context) (Group, error) {
		sess, err := p.CreateGroup(ctx)
		if err != nil {
			return nil, err
		}
		return sess, nil
	})
}

var (
	ErrNotGroup    = errors.New("blob is not a group")
	ErrNoFactory   = errors.New("blob is not a group factory")
	ErrInvalidRoot = errors.New("invalid root")
)

func factoryFrom(ws *graph.Workspace) (GroupFactory, error) {
	v, ok := ws.Get(graph.GroupFactoryBlob)
	if !ok {
		return nil, errors.Wrapf(graph.ErrBlobNotFound, "%q", graph.GroupFactoryBlob)
	}
	f, ok := v.(GroupFactory)
	if !ok {
		return nil, errors.Wrapf(ErrNoFactory, "%T", v)
	}
	return f, nil
}

func groupFrom(ws *graph.Workspace, name string) (Group, error) {
	v, ok := ws.Get(name)
	if !ok {
		return nil, errors.Wrapf(graph.ErrBlobNotFound, "%q", name)
	}
	g, ok := v.(Group)
	if !ok {
		return nil, errors.Wrapf(ErrNotGroup, "%q holds %T", name, v)
	}
	return g, nil
}
