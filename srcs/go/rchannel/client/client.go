package client

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
)

type Client struct {
	self        plan.PeerID
	useUnixSock bool
	connPool    *connectionPool
}

func New(self plan.PeerID, useUnixSock bool) *Client {
	return &Client{
		self:        self,
		useUnixSock: useUnixSock,
		connPool:    newConnectionPool(useUnixSock),
	}
}

func (c *Client) Ping(target plan.PeerID) (time.Duration, error) {
	t0 := time.Now()
	conn, err := connection.Open(target, c.self, connection.ConnPing, 0, c.useUnixSock)
	if err != nil {
		return time.Since(t0), err
	}
	defer conn.Close()
	var empty connection.Message
	if err := conn.Send("ping", empty, connection.NoFlag); err != nil {
		return time.Since(t0), err
	}
	if err := conn.Read("ping", &empty); err != nil {
		return time.Since(t0), err
	}
	return time.Since(t0), nil
}

var errWaitPeerFailed = errors.New("wait peer failed")

// Wait waits a peer until it's accessible
func (c *Client) Wait(ctx context.Context, target plan.PeerID) (int, error) {
	var last time.Time
	ping := func() bool {
		if d := time.Since(last); d < config.WaitPeerPeriod {
			time.Sleep(config.WaitPeerPeriod - d)
		}
		_, err := c.Ping(target)
		last = time.Now()
		return err == nil
	}
	n, ok := utils.Poll(ctx, ping)
	if !ok {
		return n, errors.Wrapf(errWaitPeerFailed, "%s after %d trials", target, n)
	}
	return n, nil
}

// Send sends msg to given Addr
func (c *Client) Send(a plan.Addr, msg connection.Message, t connection.ConnType, flags uint32) error {
	conn := c.connPool.get(a.Peer(), c.self, t)
	if err := conn.Send(a.Name, msg, flags); err != nil {
		return errors.Wrapf(err, "send %s", a)
	}
	log.Debugf("sent %s to %s", humanize.IBytes(uint64(msg.Length)), a)
	return nil
}

// SetGeneration makes later sends use connections of the group generation.
// Connections of earlier generations are closed, and new ones are only
// accepted by a remote server running the same generation.
func (c *Client) SetGeneration(generation uint32) {
	if n := c.connPool.advance(generation); n > 0 {
		log.Debugf("closed %d connections before generation %d", n, generation)
	}
}

func (c *Client) Close() {
	c.connPool.closeAll()
}
