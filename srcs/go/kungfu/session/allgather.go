package session

import (
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/execution"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// AllGather concatenates SendBuf of all peers into RecvBuf in rank order.
func (sess *Session) AllGather(w kb.Workspace) error {
	if w.SendBuf == nil || w.RecvBuf == nil {
		return errors.Wrap(ErrInvalidWorkspace, "nil buffer")
	}
	if w.RecvBuf.Type != w.SendBuf.Type || w.RecvBuf.Count != w.SendBuf.Count*len(sess.peers) {
		return errors.Wrapf(ErrInvalidWorkspace, "recv %d %s for %d x %d %s", w.RecvBuf.Count, w.RecvBuf.Type, len(sess.peers), w.SendBuf.Count, w.SendBuf.Type)
	}
	sess.Lock()
	defer sess.Unlock()
	done, err := sess.begin(kindAllGather, &w)
	if err != nil {
		return err
	}
	defer done()
	return sess.runAllGather(w, makeTag(kindAllGather, w.SendBuf.Type, 0, 0))
}

func (sess *Session) runAllGather(w kb.Workspace, tag uint32) error {
	count := w.SendBuf.Count
	w.RecvBuf.Slice(sess.rank*count, (sess.rank+1)*count).CopyFrom(w.SendBuf)
	if count == 0 {
		return nil
	}
	var sendInto execution.PeerFunc = func(peer plan.PeerID) error {
		w.Exchanged()
		return sess.client.Send(peer.WithName(w.Name), asMessage(w.SendBuf, tag), connection.ConnCollective, connection.WaitRecvBuf)
	}
	var recvInto execution.PeerFunc = func(peer plan.PeerID) error {
		rank, _ := sess.peers.Rank(peer)
		a := peer.WithName(w.Name)
		block := w.RecvBuf.Slice(rank*count, (rank+1)*count)
		m, err := sess.collectiveHandler.RecvInto(a, asMessage(block, tag))
		w.Exchanged()
		if err != nil {
			return errors.Wrapf(ErrCollectiveMismatch, "%v", err)
		}
		return checkMessage(m, a, tag, len(block.Data))
	}
	others := sess.peers.Others(sess.self)
	var g errgroup.Group
	g.Go(func() error { return sendInto.Par(others) })
	g.Go(func() error { return recvInto.Par(others) })
	return g.Wait()
}
