package plan

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errInvalidHostSpec = errors.New("invalid HostSpec")

// HostSpec describes a host that can run Slots peers.
// PublicAddr is the address used to reach the host from the launcher.
type HostSpec struct {
	IPv4       uint32
	Slots      int
	PublicAddr string
}

var DefaultHostSpec = HostSpec{
	IPv4:       MustParseIPv4(`127.0.0.1`),
	Slots:      runtime.NumCPU(),
	PublicAddr: `127.0.0.1`,
}

var DefaultHostList = HostList{DefaultHostSpec}

func (h HostSpec) String() string {
	return fmt.Sprintf("%s:%d:%s", FormatIPv4(h.IPv4), h.Slots, h.PublicAddr)
}

func parseHostSpec(spec string) (*HostSpec, error) {
	parts := strings.Split(spec, ":")
	ipv4, err := ParseIPv4(parts[0])
	if err != nil {
		return nil, err
	}
	switch len(parts) {
	case 1:
		return &HostSpec{IPv4: ipv4, Slots: 1, PublicAddr: parts[0]}, nil
	case 2, 3:
		slots, err := strconv.Atoi(parts[1])
		if err != nil || slots <= 0 {
			return nil, errors.Wrapf(errInvalidHostSpec, "%q", spec)
		}
		h := &HostSpec{IPv4: ipv4, Slots: slots, PublicAddr: parts[0]}
		if len(parts) == 3 {
			h.PublicAddr = parts[2]
		}
		return h, nil
	}
	return nil, errors.Wrapf(errInvalidHostSpec, "%q", spec)
}

type HostList []HostSpec

func (hl HostList) String() string {
	var ss []string
	for _, h := range hl {
		ss = append(ss, h.String())
	}
	return strings.Join(ss, ",")
}

// Set implements flags.Value::Set
func (hl *HostList) Set(val string) error {
	value, err := ParseHostList(val)
	if err != nil {
		return err
	}
	*hl = value
	return nil
}

// Type implements pflag.Value::Type
func (hl *HostList) Type() string {
	return "hostlist"
}

func ParseHostList(hostlist string) (HostList, error) {
	var hostSpecs HostList
	for _, h := range strings.Split(hostlist, ",") {
		spec, err := parseHostSpec(h)
		if err != nil {
			return nil, err
		}
		hostSpecs = append(hostSpecs, *spec)
	}
	return hostSpecs, nil
}

func (hl HostList) Cap() int {
	var cap int
	for _, h := range hl {
		cap += h.Slots
	}
	return cap
}

// Lookup returns the host spec of the given IPv4.
func (hl HostList) Lookup(ipv4 uint32) (HostSpec, bool) {
	for _, h := range hl {
		if h.IPv4 == ipv4 {
			return h, true
		}
	}
	return HostSpec{}, false
}

type PortRange struct {
	Begin uint16
	End   uint16
}

var DefaultPortRange = PortRange{
	Begin: 10000,
	End:   11000,
}

var errInvalidPortRange = errors.New("invalid port range")

func ParsePortRange(val string) (*PortRange, error) {
	var begin, end uint16
	if _, err := fmt.Sscanf(val, "%d-%d", &begin, &end); err != nil {
		return nil, errors.Wrapf(errInvalidPortRange, "%q", val)
	}
	if end < begin {
		return nil, errors.Wrapf(errInvalidPortRange, "%q", val)
	}
	return &PortRange{Begin: begin, End: end}, nil
}

// Set implements flags.Value::Set
func (pr *PortRange) Set(val string) error {
	value, err := ParsePortRange(val)
	if err != nil {
		return err
	}
	*pr = *value
	return nil
}

// Type implements pflag.Value::Type
func (pr *PortRange) Type() string {
	return "portrange"
}

func (pr PortRange) Cap() int {
	return int(pr.End) - int(pr.Begin) + 1
}

func (pr PortRange) String() string {
	return fmt.Sprintf("%d-%d", pr.Begin, pr.End)
}

func (hl HostList) genPeerList(np int, pr PortRange) PeerList {
	var pl PeerList
	for _, host := range hl {
		for j := 0; j < host.Slots; j++ {
			id := PeerID{
				IPv4: host.IPv4,
				Port: pr.Begin + uint16(j),
			}
			pl = append(pl, id)
			if len(pl) >= np {
				return pl
			}
		}
	}
	return pl
}

var errNoEnoughCapacity = errors.New("no enough capacity")

func (hl HostList) GenPeerList(np int, pr PortRange) (PeerList, error) {
	if hl.Cap() < np {
		return nil, errors.Wrapf(errNoEnoughCapacity, "%d slots for %d peers", hl.Cap(), np)
	}
	for _, h := range hl {
		if pr.Cap() < h.Slots {
			return nil, errors.Wrapf(errNoEnoughCapacity, "port range %s for %d slots", pr, h.Slots)
		}
	}
	return hl.genPeerList(np, pr), nil
}
