package base

import (
	"fmt"

	"github.com/lsds/kungfu-graph/srcs/go/plan"
)

// Workspace contains the data that a collective operation will be performed on.
type Workspace struct {
	SendBuf *Vector
	RecvBuf *Vector // if RecvBuf == SendBuf, will perform inplace operation
	OP      OP
	Name    string

	// OnExchange, if set, is called when a message of the operation is sent or received.
	OnExchange func()
}

// 0 <= begin < end <= count
func (w Workspace) slice(begin, end int) Workspace {
	return Workspace{
		SendBuf: w.SendBuf.Slice(begin, end),
		RecvBuf: w.RecvBuf.Slice(begin, end),
		OP:      w.OP,
		Name:    fmt.Sprintf("%s[%d:%d]", w.Name, begin, end),

		OnExchange: w.OnExchange,
	}
}

// PartitionFunc is the signature of function that parts the interval
type PartitionFunc func(r plan.Interval, k int) []plan.Interval

func (w Workspace) Split(p PartitionFunc, k int) []Workspace {
	if k <= 1 {
		return []Workspace{w}
	}
	var ws []Workspace
	for _, r := range p(plan.Interval{Begin: 0, End: w.SendBuf.Count}, k) {
		ws = append(ws, w.slice(r.Begin, r.End))
	}
	return ws
}

func (w Workspace) IsEmpty() bool {
	return len(w.SendBuf.Data) == 0
}

func (w Workspace) IsInplace() bool {
	return w.SendBuf.Same(w.RecvBuf)
}

// Forward copies SendBuf into RecvBuf unless the operation is inplace.
func (w Workspace) Forward() {
	if !w.IsInplace() {
		copy(w.RecvBuf.Data, w.SendBuf.Data)
	}
}

// Exchanged reports to OnExchange that a message of the operation was transferred.
func (w Workspace) Exchanged() {
	if w.OnExchange != nil {
		w.OnExchange()
	}
}
