package plan

import (
	"encoding/binary"
	"fmt"
	"net"
	"net/netip"

	"github.com/pkg/errors"
)

// NetAddr is the network address of a Peer
type NetAddr struct {
	IPv4 uint32
	Port uint16
}

func (a NetAddr) addrPort() netip.AddrPort {
	var ip [4]byte
	binary.BigEndian.PutUint32(ip[:], a.IPv4)
	return netip.AddrPortFrom(netip.AddrFrom4(ip), a.Port)
}

// ColocatedWith reports whether a and b are on the same host.
func (a NetAddr) ColocatedWith(b NetAddr) bool { return a.IPv4 == b.IPv4 }

func (a NetAddr) String() string { return a.addrPort().String() }

// SockFile is the unix socket served next to the TCP port when unix sockets are enabled.
func (a NetAddr) SockFile() string {
	return fmt.Sprintf(`/tmp/kungfu-graph-%d.sock`, a.Port)
}

func (a NetAddr) WithName(name string) Addr {
	return Addr{NetAddr: a, Name: name}
}

// Addr names a message stream of a peer. Collective messages are named by
// CollectiveName, so streams of different groups never share a queue.
type Addr struct {
	NetAddr
	Name string
}

func (a Addr) String() string { return a.Name + "@" + a.NetAddr.String() }

func (a Addr) Peer() PeerID { return PeerID(a.NetAddr) }

// CollectiveName is the message name of the seq-th collective of a group generation.
func CollectiveName(generation int, seq uint64) string {
	return fmt.Sprintf("g%d:%d", generation, seq)
}

func FormatIPv4(ipv4 uint32) string {
	return NetAddr{IPv4: ipv4}.addrPort().Addr().String()
}

var (
	errInvalidIPv4 = errors.New("invalid IPv4")
	errInvalidPort = errors.New("invalid port")
)

func ParseIPv4(host string) (uint32, error) {
	ip, err := netip.ParseAddr(host)
	if err != nil || !ip.Unmap().Is4() {
		return 0, errors.Wrapf(errInvalidIPv4, "%q", host)
	}
	b := ip.Unmap().As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// PackIPv4 packs a 4-byte IP into the uint32 used by PeerID.
func PackIPv4(ip net.IP) uint32 {
	return binary.BigEndian.Uint32(ip.To4())
}

func MustParseIPv4(host string) uint32 {
	ipv4, err := ParseIPv4(host)
	if err != nil {
		panic(err)
	}
	return ipv4
}
