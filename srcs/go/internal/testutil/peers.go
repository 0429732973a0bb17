// Package testutil provides helpers for tests that run several peers in one process.
package testutil

import (
	"net"
	"testing"

	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/stretchr/testify/require"
)

// FreePeers returns n peers on 127.0.0.1 with ports that were free at the time of the call.
func FreePeers(t testing.TB, n int) plan.PeerList {
	var pl plan.PeerList
	var ls []net.Listener
	for i := 0; i < n; i++ {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		ls = append(ls, l)
		addr := l.Addr().(*net.TCPAddr)
		pl = append(pl, plan.PeerID{
			IPv4: plan.PackIPv4(addr.IP.To4()),
			Port: uint16(addr.Port),
		})
	}
	for _, l := range ls {
		l.Close()
	}
	return pl
}
