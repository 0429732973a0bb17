package handler

import (
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/pkg/errors"
)

// CollectiveEndpoint queues incoming collective messages by (source, name).
// Messages flagged WaitRecvBuf are read directly into the buffer registered by RecvInto.
type CollectiveEndpoint struct {
	waitQ *queueSet
	recvQ *queueSet
}

func NewCollectiveEndpoint() *CollectiveEndpoint {
	return &CollectiveEndpoint{
		waitQ: newQueueSet(1),
		recvQ: newQueueSet(1),
	}
}

// Release drops the queues of the collective named name, chunks included.
// It must be called only after every message of that collective was received.
func (e *CollectiveEndpoint) Release(name string) {
	e.waitQ.release(name)
	e.recvQ.release(name)
}

// Pending returns the number of queues currently held.
func (e *CollectiveEndpoint) Pending() int {
	return e.waitQ.len() + e.recvQ.len()
}

// Handle implements connection.Handler
func (e *CollectiveEndpoint) Handle(conn connection.Connection) (int, error) {
	return connection.Stream(conn, e.accept, e.handle)
}

// Recv blocks until a message from a arrives.
func (e *CollectiveEndpoint) Recv(a plan.Addr) connection.Message {
	m := <-e.recvQ.require(a)
	return *m
}

var ErrRegisteredBufferNotUsed = errors.New("registered buffer not used")

// RecvInto registers the buffer of m for the next message from a and blocks until it is filled.
// The received header fields are returned with the message.
func (e *CollectiveEndpoint) RecvInto(a plan.Addr, m connection.Message) (connection.Message, error) {
	e.waitQ.require(a) <- &m
	pm := <-e.recvQ.require(a)
	if pm != &m {
		return *pm, errors.Wrapf(ErrRegisteredBufferNotUsed, "from %s: %s", a, pm)
	}
	return m, nil
}

func (e *CollectiveEndpoint) accept(conn connection.Connection) (string, *connection.Message, error) {
	var mh connection.MessageHeader
	if err := mh.ReadFrom(conn.Conn()); err != nil {
		return "", nil, err
	}
	name := string(mh.Name)
	if mh.HasFlag(connection.WaitRecvBuf) {
		m := <-e.waitQ.require(conn.Src().WithName(name))
		if err := m.ReadInto(conn.Conn()); err != nil {
			if !errors.Is(err, connection.ErrUnexpectedMessageLength) {
				return "", nil, err
			}
			// A different message fails the waiter in RecvInto.
			got := *m
			m = &got
		}
		m.Flags, m.Tag = mh.Flags, mh.Tag
		return name, m, nil
	}
	m := connection.Message{Flags: mh.Flags, Tag: mh.Tag}
	if err := m.ReadFrom(conn.Conn()); err != nil {
		return "", nil, err
	}
	return name, &m, nil
}

func (e *CollectiveEndpoint) handle(name string, msg *connection.Message, conn connection.Connection) {
	e.recvQ.require(conn.Src().WithName(name)) <- msg
}
