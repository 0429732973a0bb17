package peer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	kb "github.com/lsds/kungfu-graph/srcs/go/kungfu/base"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/config"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/env"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/execution"
	"github.com/lsds/kungfu-graph/srcs/go/kungfu/session"
	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/server"
	"github.com/lsds/kungfu-graph/srcs/go/utils"
	"github.com/pkg/errors"
)

var (
	// ErrGroupExists is returned by CreateGroup while a previous group is still open.
	ErrGroupExists = errors.New("group already exists")
	ErrClosed      = errors.New("peer closed")
)

// Peer owns the transport of one process and creates communication groups over it.
type Peer struct {
	sync.Mutex

	// immutable
	self     plan.PeerID
	peers    plan.PeerList
	strategy kb.Strategy
	router   *router
	server   server.Server

	// dynamic
	started    bool
	closed     bool
	generation int
	current    *session.Session
}

// New creates the Peer described by the bootstrap environment variables.
func New() (*Peer, error) {
	cfg, err := env.ParseConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg)
}

func NewFromConfig(cfg *env.Config) (*Peer, error) {
	if !cfg.InitPeers.Contains(cfg.Self) {
		return nil, errors.Errorf("%s not in %s", cfg.Self, cfg.InitPeers)
	}
	router := newRouter(cfg.Self)
	return &Peer{
		self:     cfg.Self,
		peers:    cfg.InitPeers,
		strategy: cfg.Strategy,
		router:   router,
		server:   server.New(cfg.Self, router, config.UseUnixSock),
	}, nil
}

func (p *Peer) Self() plan.PeerID {
	return p.self
}

func (p *Peer) Peers() plan.PeerList {
	return p.peers
}

// Start starts the server. It is called by CreateGroup if needed.
func (p *Peer) Start() error {
	p.Lock()
	defer p.Unlock()
	return p.start()
}

func (p *Peer) start() error {
	if p.closed {
		return ErrClosed
	}
	if p.started {
		return nil
	}
	if err := p.server.Start(); err != nil {
		return errors.Wrapf(err, "start server of %s", p.self)
	}
	p.started = true
	log.Debugf("peer %s started", p.self)
	return nil
}

// Close stops the transport. An open group can not be used afterwards.
func (p *Peer) Close() error {
	p.Lock()
	defer p.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.started {
		p.server.Close()
	}
	p.router.client.Close()
	return nil
}

// CreateGroup creates a group of all peers. It must be called by all peers,
// and blocks until every peer has joined.
func (p *Peer) CreateGroup(ctx context.Context) (*session.Session, error) {
	p.Lock()
	defer p.Unlock()
	if p.current != nil {
		return nil, ErrGroupExists
	}
	if err := p.start(); err != nil {
		return nil, err
	}
	if config.EnableStallDetection {
		name := fmt.Sprintf("CreateGroup(%s)", p.peers)
		defer utils.InstallStallDetector(name, config.StallDetectionPeriod).Stop()
	}
	p.generation++
	p.server.SetGeneration(uint32(p.generation))
	p.router.client.SetGeneration(uint32(p.generation))
	if err := p.waitPeers(ctx); err != nil {
		return nil, err
	}
	sess, ok := session.New(p.strategy, p.generation, p.self, p.peers, p.router.client, p.router.Collective)
	if !ok {
		return nil, errors.Errorf("%s not in %s", p.self, p.peers)
	}
	if err := sess.Barrier(); err != nil {
		return nil, errors.Wrap(err, "barrier failed after newSession")
	}
	id, err := agreeID(sess)
	if err != nil {
		return nil, errors.Wrap(err, "broadcast group ID")
	}
	sess.SetID(id)
	sess.OnClose(func() error { return p.release(sess) })
	p.current = sess
	log.Debugf("group %s v%d created, rank %d of %d", id, p.generation, sess.Rank(), sess.Size())
	return sess, nil
}

func (p *Peer) waitPeers(ctx context.Context) error {
	var wait execution.PeerFunc = func(target plan.PeerID) error {
		n, err := p.router.Wait(ctx, target)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Debugf("%s is up after pinged %d times", target, n+1)
		}
		return nil
	}
	return wait.Par(p.peers.Others(p.self))
}

// agreeID broadcasts a new UUID from rank 0.
func agreeID(sess *session.Session) (string, error) {
	id := uuid.New()
	b := kb.NewVector(len(id), kb.U8)
	copy(b.Data, id[:])
	w := kb.Workspace{SendBuf: b, RecvBuf: b}
	if err := sess.Broadcast(w, 0); err != nil {
		return "", err
	}
	got, err := uuid.FromBytes(b.Data)
	if err != nil {
		return "", err
	}
	return got.String(), nil
}

func (p *Peer) release(sess *session.Session) error {
	p.Lock()
	defer p.Unlock()
	if p.current == sess {
		p.current = nil
	}
	return nil
}
