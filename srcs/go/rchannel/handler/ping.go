package handler

import (
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
)

// PingHandler echoes every message back to the sender.
type PingHandler struct{}

func (h *PingHandler) Handle(conn connection.Connection) (int, error) {
	return connection.Stream(conn, connection.Accept, func(name string, msg *connection.Message, conn connection.Connection) {
		mh := connection.MessageHeader{
			NameLength: uint32(len(name)),
			Name:       []byte(name),
			Flags:      msg.Flags,
			Tag:        msg.Tag,
		}
		if err := mh.WriteTo(conn.Conn()); err != nil {
			return
		}
		msg.WriteTo(conn.Conn())
	})
}
