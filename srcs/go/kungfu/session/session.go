package session

import (
	"fmt"
	"sync"

	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/client"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/handler"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
)

var (
	// ErrCollectiveMismatch is returned when a peer sent a message for the same
	// position in the collective sequence but for a different operation.
	ErrCollectiveMismatch = errors.New("collective mismatch")
	ErrClosed             = errors.New("session closed")
	ErrInvalidRoot        = errors.New("invalid root")
	ErrInvalidWorkspace   = errors.New("invalid workspace")
)

// Session contains the immutable peer list of a communication group.
// Collective calls are numbered in the order they are made, and the i-th call
// of every peer exchanges messages only with the i-th call of the others.
type Session struct {
	sync.Mutex

	id         string
	generation int
	strategy   kb.Strategy
	strategies strategyList
	rooted     map[int]strategy

	self              plan.PeerID
	peers             plan.PeerList
	rank              int
	client            *client.Client
	collectiveHandler *handler.CollectiveEndpoint

	seq     uint64
	closed  bool
	onClose func() error
}

// New creates the session of self in pl. Names of all messages are prefixed by generation.
func New(s kb.Strategy, generation int, self plan.PeerID, pl plan.PeerList, client *client.Client, collectiveHandler *handler.CollectiveEndpoint) (*Session, bool) {
	rank, ok := pl.Rank(self)
	if !ok {
		return nil, false
	}
	sess := &Session{
		generation:        generation,
		strategy:          s,
		strategies:        genStrategyList(len(pl), s),
		rooted:            make(map[int]strategy),
		self:              self,
		peers:             pl,
		rank:              rank,
		client:            client,
		collectiveHandler: collectiveHandler,
	}
	return sess, true
}

func (sess *Session) ID() string {
	return sess.id
}

// SetID sets the group ID agreed by all peers.
func (sess *Session) SetID(id string) {
	sess.id = id
}

func (sess *Session) Size() int {
	return len(sess.peers)
}

func (sess *Session) Rank() int {
	return sess.rank
}

func (sess *Session) Peer(rank int) plan.PeerID {
	return sess.peers[rank]
}

func (sess *Session) Peers() plan.PeerList {
	return sess.peers
}

// OnClose sets the function called once by Close.
func (sess *Session) OnClose(f func() error) {
	sess.Lock()
	defer sess.Unlock()
	sess.onClose = f
}

// Close releases the session. Collectives called after Close fail with ErrClosed.
func (sess *Session) Close() error {
	sess.Lock()
	defer sess.Unlock()
	if sess.closed {
		return nil
	}
	sess.closed = true
	log.Debugf("session %s (generation %d) closed after %d collectives", sess.id, sess.generation, sess.seq)
	if sess.onClose != nil {
		return sess.onClose()
	}
	return nil
}

type kind uint8

const (
	kindBarrier kind = iota + 1
	kindBroadcast
	kindReduce
	kindAllGather
	kindAllReduce
)

var kindNames = map[kind]string{
	kindBarrier:   "Barrier",
	kindBroadcast: "Broadcast",
	kindReduce:    "Reduce",
	kindAllGather: "AllGather",
	kindAllReduce: "AllReduce",
}

func (k kind) String() string {
	return kindNames[k]
}

// makeTag packs the identity of a collective: kind, dtype, op and root.
func makeTag(k kind, dtype kb.DataType, op kb.OP, root int) uint32 {
	return uint32(k)<<24 | uint32(dtype)<<16 | uint32(op&0xf)<<12 | uint32(root&0xfff)
}

// begin assigns the next sequence number to w and prepares it for transfer.
// The returned func drops the receive queues of w once the collective has returned.
// It must be called with the lock held.
func (sess *Session) begin(k kind, w *kb.Workspace) (func(), error) {
	if sess.closed {
		return nil, errors.Wrapf(ErrClosed, "%s", k)
	}
	seq := sess.seq
	sess.seq++
	w.Name = plan.CollectiveName(sess.generation, seq)
	if w.OnExchange != nil {
		w.OnExchange = sync.OnceFunc(w.OnExchange)
	}
	log.Debugf("#%d %s %s of %d %s", seq, k, w.Name, w.SendBuf.Count, w.SendBuf.Type)
	name := w.Name
	release := func() { sess.collectiveHandler.Release(name) }
	if config.EnableStallDetection {
		sd := utils.InstallStallDetector(fmt.Sprintf("%s#%d@%s", k, seq, sess.self), config.StallDetectionPeriod)
		return func() { sd.Stop(); release() }, nil
	}
	return release, nil
}

func (sess *Session) Barrier() error {
	sess.Lock()
	defer sess.Unlock()
	return sess.barrier()
}

func (sess *Session) barrier() error {
	k := len(sess.peers)
	w := kb.Workspace{
		SendBuf: kb.NewVector(k, kb.U8),
		RecvBuf: kb.NewVector(k, kb.U8),
		OP:      kb.SUM,
	}
	done, err := sess.begin(kindBarrier, &w)
	if err != nil {
		return err
	}
	defer done()
	return sess.runStrategies(w, makeTag(kindBarrier, kb.U8, kb.SUM, 0), sess.strategies)
}

func (sess *Session) checkRoot(root int) error {
	if root < 0 || root >= len(sess.peers) {
		return errors.Wrapf(ErrInvalidRoot, "%d not in [0, %d)", root, len(sess.peers))
	}
	return nil
}

func checkSameShape(w kb.Workspace) error {
	if w.SendBuf == nil || w.RecvBuf == nil {
		return errors.Wrap(ErrInvalidWorkspace, "nil buffer")
	}
	if w.SendBuf.Count != w.RecvBuf.Count || w.SendBuf.Type != w.RecvBuf.Type {
		return errors.Wrapf(ErrInvalidWorkspace, "send %d %s, recv %d %s", w.SendBuf.Count, w.SendBuf.Type, w.RecvBuf.Count, w.RecvBuf.Type)
	}
	return nil
}

// Broadcast copies SendBuf of root into RecvBuf of every peer.
func (sess *Session) Broadcast(w kb.Workspace, root int) error {
	if err := checkSameShape(w); err != nil {
		return err
	}
	if err := sess.checkRoot(root); err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	done, err := sess.begin(kindBroadcast, &w)
	if err != nil {
		return err
	}
	defer done()
	s := sess.rootedStrategy(root)
	return sess.runStrategies(w, makeTag(kindBroadcast, w.SendBuf.Type, 0, root), strategyList{{bcastGraph: s.bcastGraph}})
}

// Reduce reduces SendBuf of all peers into RecvBuf of root.
// RecvBuf of other peers holds partial results.
func (sess *Session) Reduce(w kb.Workspace, root int) error {
	if err := checkSameShape(w); err != nil {
		return err
	}
	if err := sess.checkRoot(root); err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	done, err := sess.begin(kindReduce, &w)
	if err != nil {
		return err
	}
	defer done()
	s := sess.rootedStrategy(root)
	return sess.runStrategies(w, makeTag(kindReduce, w.SendBuf.Type, w.OP, root), strategyList{{reduceGraph: s.reduceGraph}})
}

// AllReduce reduces SendBuf of all peers into RecvBuf of every peer.
func (sess *Session) AllReduce(w kb.Workspace) error {
	if err := checkSameShape(w); err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	done, err := sess.begin(kindAllReduce, &w)
	if err != nil {
		return err
	}
	defer done()
	return sess.runStrategies(w, makeTag(kindAllReduce, w.SendBuf.Type, w.OP, 0), sess.strategies)
}
