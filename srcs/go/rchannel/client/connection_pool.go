package client

import (
	"sync"

	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
)

// connKey identifies a pooled connection. Connections of a group generation
// are never used by another generation.
type connKey struct {
	peer       plan.PeerID
	connType   connection.ConnType
	generation uint32
}

type connectionPool struct {
	mu          sync.Mutex
	useUnixSock bool
	generation  uint32
	conns       map[connKey]connection.Connection
}

func newConnectionPool(useUnixSock bool) *connectionPool {
	return &connectionPool{
		useUnixSock: useUnixSock,
		conns:       make(map[connKey]connection.Connection),
	}
}

func (p *connectionPool) get(remote, local plan.PeerID, t connection.ConnType) connection.Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := connKey{peer: remote, connType: t, generation: p.generation}
	conn, ok := p.conns[key]
	if !ok {
		conn = connection.New(remote, local, t, p.generation, p.useUnixSock)
		p.conns[key] = conn
	}
	return conn
}

// advance switches the pool to generation and closes the connections of other generations.
func (p *connectionPool) advance(generation uint32) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation = generation
	return p.closeIf(func(k connKey) bool { return k.generation != generation })
}

func (p *connectionPool) closeAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeIf(func(connKey) bool { return true })
}

func (p *connectionPool) closeIf(pred func(connKey) bool) int {
	var n int
	for k, conn := range p.conns {
		if !pred(k) {
			continue
		}
		if err := conn.Close(); err != nil {
			log.Debugf("close connection to %s of generation %d: %v", k.peer, k.generation, err)
		}
		delete(p.conns, k)
		n++
	}
	return n
}

func (p *connectionPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}
