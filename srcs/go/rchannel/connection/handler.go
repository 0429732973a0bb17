package connection

import (
	"io"

	"github.com/pkg/errors"
)

// Handler serves one accepted Connection until it is closed by the remote end.
// It returns the number of messages handled.
type Handler interface {
	Handle(conn Connection) (int, error)
}

type HandlerFunc func(Connection) (int, error)

func (f HandlerFunc) Handle(c Connection) (int, error) { return f(c) }

// AcceptFunc reads the next message of conn.
type AcceptFunc func(conn Connection) (string, *Message, error)

// MsgHandleFunc consumes a message returned by an AcceptFunc.
type MsgHandleFunc func(name string, msg *Message, conn Connection)

// Accept reads the next message of conn into a new buffer.
func Accept(conn Connection) (string, *Message, error) {
	var mh MessageHeader
	if err := mh.ReadFrom(conn.Conn()); err != nil {
		return "", nil, err
	}
	msg := &Message{Flags: mh.Flags, Tag: mh.Tag}
	if err := msg.ReadFrom(conn.Conn()); err != nil {
		return "", nil, errors.Wrapf(err, "body of %q from %s", mh.Name, conn.Src())
	}
	return string(mh.Name), msg, nil
}

// Stream passes every message of conn from accept to handle. A clean close
// by the remote end between two messages is not an error.
func Stream(conn Connection, accept AcceptFunc, handle MsgHandleFunc) (int, error) {
	var n int
	for {
		name, msg, err := accept(conn)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		handle(name, msg, conn)
		n++
	}
}
