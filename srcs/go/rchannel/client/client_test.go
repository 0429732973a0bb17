package client

import (
	"context"
	"testing"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/internal/testutil"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/handler"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SetGeneration(t *testing.T) {
	pl := testutil.FreePeers(t, 2)
	remote, self := pl[0], pl[1]
	ep := handler.NewCollectiveEndpoint()
	ping := &handler.PingHandler{}
	srv := server.New(remote, connection.HandlerFunc(func(conn connection.Connection) (int, error) {
		if conn.Type() == connection.ConnPing {
			return ping.Handle(conn)
		}
		return ep.Handle(conn)
	}), false)
	srv.SetGeneration(1)
	require.NoError(t, srv.Start())
	defer srv.Close()

	c := New(self, false)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.Wait(ctx, remote)
	require.NoError(t, err)

	c.SetGeneration(1)
	msg := connection.Message{Length: 2, Data: []byte("g1"), Tag: 1}
	require.NoError(t, c.Send(remote.WithName("x"), msg, connection.ConnCollective, connection.NoFlag))
	assert.Equal(t, "g1", string(ep.Recv(self.WithName("x")).Data))
	assert.Equal(t, 1, c.connPool.len())

	c.SetGeneration(2)
	assert.Equal(t, 0, c.connPool.len(), "connections of generation 1 are closed")

	srv.SetGeneration(2)
	msg = connection.Message{Length: 2, Data: []byte("g2"), Tag: 1}
	require.NoError(t, c.Send(remote.WithName("y"), msg, connection.ConnCollective, connection.NoFlag))
	assert.Equal(t, "g2", string(ep.Recv(self.WithName("y")).Data))
	assert.Equal(t, 1, c.connPool.len())
}
