package connection

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/pkg/errors"
)

// Connection is a simplex logical connection from one peer to another
type Connection interface {
	io.Closer

	Conn() net.Conn
	Type() ConnType
	Src() plan.PeerID
	Dest() plan.PeerID
	Send(name string, m Message, flags uint32) error
	Read(name string, m *Message) error
}

// UpgradeFrom performs the server side operations to upgrade a TCP connection to a Connection
func UpgradeFrom(conn net.Conn, self plan.PeerID, generation uint32) (Connection, error) {
	var ch connectionHeader
	if err := ch.ReadFrom(conn); err != nil {
		return nil, err
	}
	ack := connectionACK{
		Generation: generation,
	}
	if err := ack.WriteTo(conn); err != nil {
		return nil, err
	}
	return &tcpConnection{
		src:      plan.PeerID{IPv4: ch.SrcIPv4, Port: ch.SrcPort},
		dest:     self,
		connType: ConnType(ch.Type),
		conn:     conn,
	}, nil
}

var (
	errGenerationMismatch      = errors.New("group generation mismatch")
	errCantEstablishConnection = errors.New("can't establish connection")
)

// Open creates a connection and establishes it immediately, without retry.
func Open(remote, local plan.PeerID, t ConnType, generation uint32, useUnixSock bool) (Connection, error) {
	conn := newConnection(remote, local, t, generation, useUnixSock, 0)
	if err := conn.initOnce(); err != nil {
		return nil, err
	}
	return conn, nil
}

// New creates a connection that is established lazily on first use.
// Collective connections retry until the remote server runs the same generation.
func New(remote, local plan.PeerID, t ConnType, generation uint32, useUnixSock bool) Connection {
	var initRetry int
	if t == ConnCollective {
		initRetry = config.ConnRetryCount
	}
	return newConnection(remote, local, t, generation, useUnixSock, initRetry)
}

func newConnection(remote, local plan.PeerID, t ConnType, generation uint32, useUnixSock bool, initRetry int) *tcpConnection {
	init := func() (net.Conn, error) {
		conn, err := func() (net.Conn, error) {
			if useUnixSock && remote.ColocatedWith(local) {
				addr := net.UnixAddr{Name: remote.SockFile(), Net: "unix"}
				return net.DialUnix(addr.Net, nil, &addr)
			}
			return net.Dial("tcp", remote.String())
		}()
		if err != nil {
			return nil, err
		}
		h := connectionHeader{
			Type:    uint16(t),
			SrcIPv4: local.IPv4,
			SrcPort: local.Port,
		}
		if err := h.WriteTo(conn); err != nil {
			conn.Close()
			return nil, err
		}
		var ack connectionACK
		if err := ack.ReadFrom(conn); err != nil {
			conn.Close()
			return nil, err
		}
		if t == ConnCollective && ack.Generation != generation {
			conn.Close()
			return nil, errors.Wrapf(errGenerationMismatch, "%s runs %d, want %d", remote, ack.Generation, generation)
		}
		return conn, nil
	}
	return &tcpConnection{
		init:      init,
		src:       local,
		dest:      remote,
		initRetry: initRetry,
		connType:  t,
	}
}

type tcpConnection struct {
	sync.Mutex
	src, dest plan.PeerID
	init      func() (net.Conn, error)
	conn      net.Conn
	initRetry int
	connType  ConnType
}

func (c *tcpConnection) Conn() net.Conn {
	return c.conn
}

func (c *tcpConnection) Type() ConnType {
	return c.connType
}

func (c *tcpConnection) Src() plan.PeerID {
	return c.src
}

func (c *tcpConnection) Dest() plan.PeerID {
	return c.dest
}

func (c *tcpConnection) initOnce() error {
	c.Lock()
	defer c.Unlock()
	if c.conn != nil {
		return nil
	}
	t0 := time.Now()
	var err error
	for i := 0; i <= c.initRetry; i++ {
		if c.conn, err = c.init(); err == nil {
			log.Debugf("%s connection to #<%s> established after %d trials, took %s", c.connType, c.dest, i+1, time.Since(t0))
			return nil
		}
		log.Debugf("failed to establish connection to #<%s> for %d times: %v", c.dest, i+1, err)
		if i < c.initRetry {
			time.Sleep(config.ConnRetryPeriod)
		}
	}
	return errors.Wrapf(errCantEstablishConnection, "to %s: %v", c.dest, err)
}

func (c *tcpConnection) Send(name string, m Message, flags uint32) error {
	if err := c.initOnce(); err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	bs := []byte(name)
	mh := MessageHeader{
		NameLength: uint32(len(bs)),
		Name:       bs,
		Flags:      flags,
		Tag:        m.Tag,
	}
	if err := mh.WriteTo(c.conn); err != nil {
		return err
	}
	return m.WriteTo(c.conn)
}

func (c *tcpConnection) Read(name string, m *Message) error {
	if err := c.initOnce(); err != nil {
		return err
	}
	c.Lock()
	defer c.Unlock()
	var mh MessageHeader
	if err := mh.Expect(c.conn, name); err != nil {
		return err
	}
	m.Flags, m.Tag = mh.Flags, mh.Tag
	return m.ReadInto(c.conn)
}

func (c *tcpConnection) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
