package plan

import (
	"strings"
)

type PeerList []PeerID

func (pl PeerList) String() string {
	var parts []string
	for _, p := range pl {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, ",")
}

func (pl PeerList) Rank(ps PeerID) (int, bool) {
	for i, p := range pl {
		if p == ps {
			return i, true
		}
	}
	return -1, false
}

// Others returns all peers except self, in rank order.
func (pl PeerList) Others(self PeerID) PeerList {
	var ql PeerList
	for _, p := range pl {
		if p != self {
			ql = append(ql, p)
		}
	}
	return ql
}

// On returns the peers on the host ipv4.
func (pl PeerList) On(ipv4 uint32) PeerList {
	var ql PeerList
	for _, p := range pl {
		if p.IPv4 == ipv4 {
			ql = append(ql, p)
		}
	}
	return ql
}

// LocalRank returns the rank of p among the peers on its host.
func (pl PeerList) LocalRank(p PeerID) (int, bool) {
	return pl.On(p.IPv4).Rank(p)
}

// Hosts returns the distinct hosts of pl in order of appearance.
func (pl PeerList) Hosts() []uint32 {
	seen := make(map[uint32]bool)
	var hs []uint32
	for _, p := range pl {
		if !seen[p.IPv4] {
			seen[p.IPv4] = true
			hs = append(hs, p.IPv4)
		}
	}
	return hs
}

// Select returns the peers of the given ranks.
func (pl PeerList) Select(ranks []int) PeerList {
	var ql PeerList
	for _, r := range ranks {
		ql = append(ql, pl[r])
	}
	return ql
}

func (pl PeerList) Set() map[PeerID]struct{} {
	s := make(map[PeerID]struct{})
	for _, p := range pl {
		s[p] = struct{}{}
	}
	return s
}

func (pl PeerList) Contains(p PeerID) bool {
	_, ok := pl.Rank(p)
	return ok
}

func (pl PeerList) Eq(ql PeerList) bool {
	if len(pl) != len(ql) {
		return false
	}
	for i, p := range pl {
		if p != ql[i] {
			return false
		}
	}
	return true
}

func ParsePeerList(val string) (PeerList, error) {
	var pl PeerList
	for _, p := range strings.Split(val, ",") {
		id, err := ParsePeerID(p)
		if err != nil {
			return nil, err
		}
		pl = append(pl, *id)
	}
	return pl, nil
}
