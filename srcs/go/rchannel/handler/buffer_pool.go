package handler

import (
	"strings"
	"sync"

	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
)

// queueSet holds one message queue per (source, message name).
// Queues are created by whichever side arrives first, the network handler
// or the local receiver, and dropped by release once the collective is over.
type queueSet struct {
	mu     sync.Mutex
	size   int
	queues map[plan.Addr]chan *connection.Message
}

func newQueueSet(size int) *queueSet {
	return &queueSet{
		size:   size,
		queues: make(map[plan.Addr]chan *connection.Message),
	}
}

func (s *queueSet) require(a plan.Addr) chan *connection.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[a]
	if !ok {
		q = make(chan *connection.Message, s.size)
		s.queues[a] = q
	}
	return q
}

// isChunkOf reports whether name is the message name of collective or of one of its chunks.
func isChunkOf(name, collective string) bool {
	return name == collective || strings.HasPrefix(name, collective+"[")
}

// release drops the queues of collective from every source and returns how many were dropped.
func (s *queueSet) release(collective string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for a := range s.queues {
		if isChunkOf(a.Name, collective) {
			delete(s.queues, a)
			n++
		}
	}
	return n
}

func (s *queueSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues)
}
