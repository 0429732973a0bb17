package peer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/internal/testutil"
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/env"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/session"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newPeers(t *testing.T, n int, strategy kb.Strategy) []*Peer {
	pl := testutil.FreePeers(t, n)
	var ps []*Peer
	for _, self := range pl {
		p, err := NewFromConfig(&env.Config{Self: self, InitPeers: pl, Strategy: strategy})
		require.NoError(t, err)
		ps = append(ps, p)
		t.Cleanup(func() { p.Close() })
	}
	return ps
}

// runAll runs f on a new group of every peer concurrently.
func runAll(t *testing.T, ps []*Peer, f func(sess *session.Session) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	var g errgroup.Group
	for _, p := range ps {
		p := p
		g.Go(func() error {
			sess, err := p.CreateGroup(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()
			return f(sess)
		})
	}
	require.NoError(t, g.Wait())
}

func fillF32(b *kb.Vector, x float32) {
	for i := range b.AsF32() {
		b.AsF32()[i] = x
	}
}

func allF32(b *kb.Vector, x float32, msg string) error {
	for i, y := range b.AsF32() {
		if y != x {
			return errors.Errorf("%s: [%d] = %f, want %f", msg, i, y, x)
		}
	}
	return nil
}

var strategies = []kb.Strategy{kb.Star, kb.BinaryTree, kb.Ring}

func Test_Collectives(t *testing.T) {
	for _, s := range strategies {
		for np := 1; np <= 4; np++ {
			t.Run(fmt.Sprintf("%s/np=%d", s, np), func(t *testing.T) {
				testCollectives(t, newPeers(t, np, s))
			})
		}
	}
}

func testCollectives(t *testing.T, ps []*Peer) {
	const n = 10
	runAll(t, ps, func(sess *session.Session) error {
		r, k := sess.Rank(), sess.Size()
		sum := float32(k * (k - 1) / 2)
		for root := 0; root < k; root++ {
			x := kb.NewVector(n, kb.F32)
			y := kb.NewVector(n, kb.F32)
			fillF32(x, float32(r))
			if err := sess.Broadcast(kb.Workspace{SendBuf: x, RecvBuf: y, Name: "b"}, root); err != nil {
				return err
			}
			if err := allF32(y, float32(root), "broadcast"); err != nil {
				return err
			}
			w := kb.Workspace{SendBuf: x, RecvBuf: y, OP: kb.SUM}
			if err := sess.Reduce(w, root); err != nil {
				return err
			}
			if r == root {
				if err := allF32(y, sum, "reduce"); err != nil {
					return err
				}
			}
		}
		{
			x := kb.NewVector(n, kb.F32)
			y := kb.NewVector(n, kb.F32)
			fillF32(x, float32(r))
			if err := sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: y, OP: kb.SUM}); err != nil {
				return err
			}
			if err := allF32(y, sum, "allreduce"); err != nil {
				return err
			}
			if err := sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x, OP: kb.MAX}); err != nil {
				return err
			}
			if err := allF32(x, float32(k-1), "inplace allreduce"); err != nil {
				return err
			}
		}
		{
			x := kb.NewVector(n, kb.F32)
			y := kb.NewVector(n*k, kb.F32)
			fillF32(x, float32(r))
			if err := sess.AllGather(kb.Workspace{SendBuf: x, RecvBuf: y}); err != nil {
				return err
			}
			for i, v := range y.AsF32() {
				if v != float32(i/n) {
					return errors.Errorf("allgather: [%d] = %f", i, v)
				}
			}
		}
		return sess.Barrier()
	})
}

func Test_ChunkedAllReduce(t *testing.T) {
	const n = 1<<19 + 3 // more than 2 chunks of f32
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			runAll(t, newPeers(t, 3, s), func(sess *session.Session) error {
				x := kb.NewVector(n, kb.F64)
				for i := range x.AsF64() {
					x.AsF64()[i] = float64(i%7 + sess.Rank())
				}
				if err := sess.AllReduce(kb.Workspace{SendBuf: x, RecvBuf: x, OP: kb.SUM}); err != nil {
					return err
				}
				for i, v := range x.AsF64() {
					if want := float64(3*(i%7) + 3); v != want {
						return errors.Errorf("[%d] = %f, want %f", i, v, want)
					}
				}
				return nil
			})
		})
	}
}

func Test_CreateGroup(t *testing.T) {
	ps := newPeers(t, 3, kb.DefaultStrategy)
	ids := make([]string, len(ps))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for round := 0; round < 2; round++ {
		var g errgroup.Group
		for i, p := range ps {
			i, p := i, p
			g.Go(func() error {
				sess, err := p.CreateGroup(ctx)
				if err != nil {
					return err
				}
				if _, err := p.CreateGroup(ctx); !errors.Is(err, ErrGroupExists) {
					return errors.Errorf("second CreateGroup: %v", err)
				}
				ids[i] = sess.ID()
				if err := sess.Barrier(); err != nil {
					return err
				}
				if err := sess.Close(); err != nil {
					return err
				}
				if err := sess.Barrier(); !errors.Is(err, session.ErrClosed) {
					return errors.Errorf("barrier after close: %v", err)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.NotEmpty(t, ids[0])
		assert.Equal(t, ids[0], ids[1])
		assert.Equal(t, ids[0], ids[2])
	}
}

func Test_CreateGroup_Canceled(t *testing.T) {
	ps := newPeers(t, 2, kb.DefaultStrategy)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := ps[0].CreateGroup(ctx)
	assert.Error(t, err, "peer 1 never joins")
}

func Test_InvalidRoot(t *testing.T) {
	runAll(t, newPeers(t, 2, kb.DefaultStrategy), func(sess *session.Session) error {
		x := kb.NewVector(1, kb.F32)
		if err := sess.Broadcast(kb.Workspace{SendBuf: x, RecvBuf: x}, 2); !errors.Is(err, session.ErrInvalidRoot) {
			return errors.Errorf("unexpected error %v", err)
		}
		return nil
	})
}
