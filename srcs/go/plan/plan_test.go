package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParsePeerList(t *testing.T) {
	pl, err := ParsePeerList("127.0.0.1:10000,127.0.0.1:10001,192.168.1.2:10000")
	require.NoError(t, err)
	require.Len(t, pl, 3)
	assert.Equal(t, "127.0.0.1:10001", pl[1].String())
	assert.Equal(t, "127.0.0.1:10000,127.0.0.1:10001,192.168.1.2:10000", pl.String())

	r, ok := pl.Rank(pl[2])
	assert.True(t, ok)
	assert.Equal(t, 2, r)
	assert.Equal(t, PeerList{pl[0], pl[2]}, pl.Others(pl[1]))
	assert.True(t, pl.Select([]int{2, 0}).Eq(PeerList{pl[2], pl[0]}))
	assert.True(t, pl[0].ColocatedWith(pl[1]))
	assert.False(t, pl[0].ColocatedWith(pl[2]))

	local := MustParseIPv4("127.0.0.1")
	assert.Equal(t, PeerList{pl[0], pl[1]}, pl.On(local))
	r, ok = pl.LocalRank(pl[2])
	assert.True(t, ok)
	assert.Equal(t, 0, r)
	assert.Equal(t, []uint32{local, MustParseIPv4("192.168.1.2")}, pl.Hosts())

	for _, bad := range []string{"", "127.0.0.1", "localhost:1", "127.0.0.1:70000", "1.2.3:4"} {
		_, err := ParsePeerList(bad)
		assert.Error(t, err, bad)
	}
}

func Test_GenPeerList(t *testing.T) {
	hl, err := ParseHostList("192.168.1.11:2,192.168.1.12:4:host-b")
	require.NoError(t, err)
	assert.Equal(t, 6, hl.Cap())
	assert.Equal(t, "host-b", hl[1].PublicAddr)
	assert.Equal(t, "192.168.1.11", hl[0].PublicAddr)

	pl, err := hl.GenPeerList(3, DefaultPortRange)
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.11:10000,192.168.1.11:10001,192.168.1.12:10000", pl.String())

	_, err = hl.GenPeerList(7, DefaultPortRange)
	assert.Error(t, err)
	_, err = hl.GenPeerList(3, PortRange{Begin: 10000, End: 10001})
	assert.Error(t, err)

	h, ok := hl.Lookup(MustParseIPv4("192.168.1.12"))
	assert.True(t, ok)
	assert.Equal(t, 4, h.Slots)
}

func Test_ParsePortRange(t *testing.T) {
	pr, err := ParsePortRange("20000-20010")
	require.NoError(t, err)
	assert.Equal(t, 11, pr.Cap())
	assert.Equal(t, "20000-20010", pr.String())
	_, err = ParsePortRange("20010-20000")
	assert.Error(t, err)
}

func Test_EvenPartition(t *testing.T) {
	parts := EvenPartition(Interval{Begin: 0, End: 10}, 4)
	assert.Equal(t, []Interval{{0, 3}, {3, 6}, {6, 8}, {8, 10}}, parts)
}

func Test_Addr(t *testing.T) {
	ipv4, err := ParseIPv4("::ffff:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", FormatIPv4(ipv4))
	_, err = ParseIPv4("::1")
	assert.Error(t, err)

	p := PeerID{IPv4: ipv4, Port: 10001}
	a := p.WithName(CollectiveName(2, 15))
	assert.Equal(t, "g2:15@10.0.0.1:10001", a.String())
	assert.Equal(t, p, a.Peer())
	assert.Equal(t, "0.0.0.0:10001", p.ListenAddr(false).String())
}
