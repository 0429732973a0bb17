package peer

import (
	"context"

	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/client"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/handler"
)

type router struct {
	self        plan.PeerID
	Collective  *handler.CollectiveEndpoint
	pingHandler *handler.PingHandler
	client      *client.Client
}

func newRouter(self plan.PeerID) *router {
	return &router{
		self:        self,
		Collective:  handler.NewCollectiveEndpoint(),
		pingHandler: &handler.PingHandler{},
		client:      client.New(self, config.UseUnixSock),
	}
}

func (r *router) Wait(ctx context.Context, target plan.PeerID) (int, error) {
	return r.client.Wait(ctx, target)
}

// Handle implements connection.Handler
func (r *router) Handle(conn connection.Connection) (int, error) {
	switch t := conn.Type(); t {
	case connection.ConnCollective:
		return r.Collective.Handle(conn)
	case connection.ConnPing:
		return r.pingHandler.Handle(conn)
	default:
		return 0, connection.ErrInvalidConnectionType
	}
}
