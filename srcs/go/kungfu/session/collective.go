package session

import (
	"sync"

	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/execution"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/plan/graph"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
)

func asMessage(b *kb.Vector, tag uint32) connection.Message {
	return connection.Message{
		Length: uint32(len(b.Data)),
		Data:   b.Data,
		Tag:    tag,
	}
}

func checkMessage(m connection.Message, from plan.Addr, tag uint32, length int) error {
	if m.Tag != tag {
		return errors.Wrapf(ErrCollectiveMismatch, "%s: tag %#x, want %#x", from, m.Tag, tag)
	}
	if int(m.Length) != length {
		return errors.Wrapf(ErrCollectiveMismatch, "%s: %d bytes, want %d", from, m.Length, length)
	}
	return nil
}

func isIsolated(rank int, graphs ...*graph.Graph) bool {
	for _, g := range graphs {
		if !g.IsIsolated(rank) {
			return false
		}
	}
	return true
}

// runGraphs runs the graphs in order. A vertex with a self loop reduces what it
// receives onto its own data, other vertices overwrite their data with what they receive.
func (sess *Session) runGraphs(w kb.Workspace, tag uint32, graphs ...*graph.Graph) error {
	if w.IsEmpty() {
		return nil
	}
	if isIsolated(sess.rank, graphs...) {
		w.Forward()
		return nil
	}
	var recvCount int
	effectiveBuffer := func() *kb.Vector {
		if recvCount > 0 || w.IsInplace() {
			return w.RecvBuf
		}
		return w.SendBuf
	}
	send := func(peer plan.PeerID, flags uint32) error {
		w.Exchanged()
		return sess.client.Send(peer.WithName(w.Name), asMessage(effectiveBuffer(), tag), connection.ConnCollective, flags)
	}
	var sendOnto execution.PeerFunc = func(peer plan.PeerID) error {
		return send(peer, connection.NoFlag)
	}
	var sendInto execution.PeerFunc = func(peer plan.PeerID) error {
		return send(peer, connection.WaitRecvBuf)
	}
	var lock sync.Mutex
	var recvOnto execution.PeerFunc = func(peer plan.PeerID) error {
		a := peer.WithName(w.Name)
		m := sess.collectiveHandler.Recv(a)
		w.Exchanged()
		if err := checkMessage(m, a, tag, len(w.SendBuf.Data)); err != nil {
			return err
		}
		b := &kb.Vector{Data: m.Data, Count: w.SendBuf.Count, Type: w.SendBuf.Type}
		lock.Lock()
		defer lock.Unlock()
		kb.Transform2(w.RecvBuf, effectiveBuffer(), b, w.OP)
		recvCount++
		return nil
	}
	var recvInto execution.PeerFunc = func(peer plan.PeerID) error {
		a := peer.WithName(w.Name)
		m, err := sess.collectiveHandler.RecvInto(a, asMessage(w.RecvBuf, tag))
		w.Exchanged()
		if err != nil {
			return errors.Wrapf(ErrCollectiveMismatch, "%v", err)
		}
		if err := checkMessage(m, a, tag, len(w.RecvBuf.Data)); err != nil {
			return err
		}
		recvCount++
		return nil
	}
	for _, g := range graphs {
		prevs := sess.peers.Select(g.Prevs(sess.rank))
		nexts := sess.peers.Select(g.Nexts(sess.rank))
		if g.IsSelfLoop(sess.rank) {
			if err := recvOnto.Par(prevs); err != nil {
				return err
			}
			if err := sendOnto.Par(nexts); err != nil {
				return err
			}
		} else {
			if len(prevs) > 1 {
				log.Errorf("more than once recvInto detected at node %d", sess.rank)
			}
			if len(prevs) == 0 && recvCount == 0 {
				w.Forward()
			} else {
				if err := recvInto.Seq(prevs); err != nil {
					return err
				}
			}
			if err := sendInto.Par(nexts); err != nil {
				return err
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	if a%b == 0 {
		return a / b
	}
	return a/b + 1
}

// runStrategies splits w into chunks of at most config.ChunkSize bytes and
// runs them concurrently, the i-th chunk over strategies.choose(i).
func (sess *Session) runStrategies(w kb.Workspace, tag uint32, strategies strategyList) error {
	k := ceilDiv(len(w.RecvBuf.Data), config.ChunkSize)
	ws := w.Split(plan.EvenPartition, k)
	errs := make([]error, len(ws))
	var wg sync.WaitGroup
	for i, w := range ws {
		wg.Add(1)
		go func(i int, w kb.Workspace, s strategy) {
			errs[i] = sess.runGraphs(w, tag, s.graphs()...)
			wg.Done()
		}(i, w, strategies.choose(i))
	}
	wg.Wait()
	return utils.MergeErrors(errs, "runStrategies")
}
