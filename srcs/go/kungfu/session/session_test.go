package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/internal/testutil"
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/client"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/handler"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/server"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

const testGeneration = 1

// newSessions starts the transport of np peers and returns one session per peer.
func newSessions(t *testing.T, np int, s kb.Strategy) []*Session {
	pl := testutil.FreePeers(t, np)
	var clients []*client.Client
	var eps []*handler.CollectiveEndpoint
	for _, self := range pl {
		ep := handler.NewCollectiveEndpoint()
		ping := &handler.PingHandler{}
		srv := server.New(self, connection.HandlerFunc(func(conn connection.Connection) (int, error) {
			if conn.Type() == connection.ConnPing {
				return ping.Handle(conn)
			}
			return ep.Handle(conn)
		}), false)
		srv.SetGeneration(testGeneration)
		require.NoError(t, srv.Start())
		t.Cleanup(srv.Close)
		c := client.New(self, false)
		c.SetGeneration(testGeneration)
		t.Cleanup(c.Close)
		clients = append(clients, c)
		eps = append(eps, ep)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i, self := range pl {
		for _, p := range pl.Others(self) {
			_, err := clients[i].Wait(ctx, p)
			require.NoError(t, err)
		}
	}
	var sessions []*Session
	for i, self := range pl {
		sess, ok := New(s, testGeneration, self, pl, clients[i], eps[i])
		require.True(t, ok)
		sessions = append(sessions, sess)
	}
	return sessions
}

// onAll runs f for every session concurrently.
func onAll(sessions []*Session, f func(sess *Session) error) error {
	var g errgroup.Group
	for _, sess := range sessions {
		sess := sess
		g.Go(func() error { return f(sess) })
	}
	return g.Wait()
}

func filled(n int, x float64) *kb.Vector {
	v := kb.NewVector(n, kb.F32)
	for i := 0; i < n; i++ {
		v.SetFloat64(i, x)
	}
	return v
}

func checkAll(v *kb.Vector, want float64, what string) error {
	for i := 0; i < v.Count; i++ {
		if x := v.Float64At(i); x != want {
			return errors.Errorf("%s: [%d] = %f, want %f", what, i, x, want)
		}
	}
	return nil
}

var strategies = []kb.Strategy{kb.Star, kb.BinaryTree, kb.Ring}

func Test_Collectives(t *testing.T) {
	// 300000 f32 is more than config.ChunkSize bytes.
	for _, n := range []int{10, 300000} {
		for _, s := range strategies {
			for _, np := range []int{1, 2, 4} {
				t.Run(fmt.Sprintf("n=%d/%s/np=%d", n, s, np), func(t *testing.T) {
					testCollectives(t, newSessions(t, np, s), n)
				})
			}
		}
	}
}

func testCollectives(t *testing.T, sessions []*Session, n int) {
	np := len(sessions)
	sum := float64(np * (np - 1) / 2)
	for root := 0; root < np; root++ {
		require.NoError(t, onAll(sessions, func(sess *Session) error {
			y := kb.NewVector(n, kb.F32)
			if err := sess.Broadcast(kb.Workspace{SendBuf: filled(n, float64(sess.Rank())), RecvBuf: y}, root); err != nil {
				return err
			}
			return checkAll(y, float64(root), fmt.Sprintf("Broadcast(%d)@%d", root, sess.Rank()))
		}))
		require.NoError(t, onAll(sessions, func(sess *Session) error {
			y := kb.NewVector(n, kb.F32)
			w := kb.Workspace{SendBuf: filled(n, float64(sess.Rank())), RecvBuf: y, OP: kb.SUM}
			if err := sess.Reduce(w, root); err != nil {
				return err
			}
			if sess.Rank() != root {
				return nil
			}
			return checkAll(y, sum, fmt.Sprintf("Reduce(%d)", root))
		}))
	}
	require.NoError(t, onAll(sessions, func(sess *Session) error {
		x := filled(n, float64(sess.Rank()))
		if err := sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x, OP: kb.SUM}); err != nil {
			return err
		}
		return checkAll(x, sum, fmt.Sprintf("AllReduce@%d", sess.Rank()))
	}))
	require.NoError(t, onAll(sessions, func(sess *Session) error {
		y := kb.NewVector(n*np, kb.F32)
		if err := sess.AllGather(kb.Workspace{SendBuf: filled(n, float64(sess.Rank())), RecvBuf: y}); err != nil {
			return err
		}
		for r := 0; r < np; r++ {
			if err := checkAll(y.Slice(r*n, (r+1)*n), float64(r), fmt.Sprintf("AllGather@%d block %d", sess.Rank(), r)); err != nil {
				return err
			}
		}
		return nil
	}))
	for _, sess := range sessions {
		assert.Equal(t, 0, sess.collectiveHandler.Pending(), "queues of finished collectives are released")
	}
}

func Test_Mismatch(t *testing.T) {
	sessions := newSessions(t, 2, kb.Star)
	errs := make(chan error, 1)
	go func() {
		x := filled(4, 1)
		errs <- sessions[0].AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x, OP: kb.SUM})
	}()
	go func() {
		// rank 1 waits for a broadcast that never comes
		x := filled(4, 1)
		sessions[1].AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x, OP: kb.MAX})
	}()
	select {
	case err := <-errs:
		assert.True(t, errors.Is(err, ErrCollectiveMismatch), "%v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("mismatch not detected")
	}
}

func Test_InvalidCalls(t *testing.T) {
	sess := newSessions(t, 1, kb.DefaultStrategy)[0]
	x := filled(3, 1)
	assert.True(t, errors.Is(sess.Broadcast(kb.Workspace{SendBuf: x, RecvBuf: x}, 1), ErrInvalidRoot))
	assert.True(t, errors.Is(sess.Reduce(kb.Workspace{SendBuf: x, RecvBuf: x}, -1), ErrInvalidRoot))
	assert.True(t, errors.Is(sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: filled(4, 0)}), ErrInvalidWorkspace))
	assert.True(t, errors.Is(sess.AllGather(kb.Workspace{SendBuf: x, RecvBuf: filled(4, 0)}), ErrInvalidWorkspace))

	var closed int
	sess.OnClose(func() error { closed++; return nil })
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
	assert.Equal(t, 1, closed)
	assert.True(t, errors.Is(sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x}), ErrClosed))
}

func Test_makeTag(t *testing.T) {
	tags := map[uint32]string{}
	for _, k := range []kind{kindBroadcast, kindReduce, kindAllReduce} {
		for _, op := range []kb.OP{kb.SUM, kb.MAX} {
			for root := 0; root < 3; root++ {
				tag := makeTag(k, kb.F32, op, root)
				name := fmt.Sprintf("%s/%s/%d", k, op, root)
				prev, dup := tags[tag]
				assert.False(t, dup, "%s and %s share tag %#x", name, prev, tag)
				tags[tag] = name
			}
		}
	}
	assert.NotEqual(t, makeTag(kindAllReduce, kb.F32, kb.SUM, 0), makeTag(kindAllReduce, kb.F64, kb.SUM, 0))
}

func Test_genStrategyList(t *testing.T) {
	assert.Len(t, genStrategyList(4, kb.Ring), 4)
	assert.Len(t, genStrategyList(4, kb.Star), 1)
	sl := genStrategyList(3, kb.Ring)
	for i := 0; i < 6; i++ {
		// the i-th chunk goes round the ring ending at i % 3
		s := sl.choose(i)
		assert.Empty(t, s.bcastGraph.Prevs(i%3), "chunk %d", i)
	}
	s := genRootedStrategy(4, 2, kb.Star)
	assert.Equal(t, []int{0, 1, 3}, s.bcastGraph.Nexts(2))
	assert.Equal(t, []int{0, 1, 3}, s.reduceGraph.Prevs(2))
}
