package server

import (
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
	"github.com/pkg/errors"
)

type server struct {
	listen     func() (net.Listener, error)
	listener   net.Listener
	self       plan.PeerID
	handler    connection.Handler
	generation uint32
	unix       bool

	mu    sync.Mutex
	conns map[connection.Connection]struct{}
}

func newTCPServer(self plan.PeerID, handler connection.Handler) *server {
	return &server{
		listen: func() (net.Listener, error) {
			listenAddr := self.ListenAddr(false)
			log.Debugf("listening: %s", listenAddr)
			return net.Listen("tcp", listenAddr.String())
		},
		self:    self,
		handler: handler,
		conns:   make(map[connection.Connection]struct{}),
	}
}

func fileAge(filename string) (time.Duration, bool) {
	info, err := os.Stat(filename)
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// newUnixServer creates a new Server listening Unix socket
func newUnixServer(self plan.PeerID, handler connection.Handler) *server {
	listen := func() (net.Listener, error) {
		sockFile := self.SockFile()
		if age, ok := fileAge(sockFile); ok {
			log.Warnf("%s already exists for %s, trying to remove", sockFile, age)
			if err := os.Remove(sockFile); err != nil {
				return nil, errors.Wrapf(err, "can't cleanup socket file %s", sockFile)
			}
		}
		return net.ListenUnix("unix", &net.UnixAddr{Name: sockFile, Net: "unix"})
	}
	return &server{
		listen:  listen,
		self:    self,
		handler: handler,
		unix:    true,
		conns:   make(map[connection.Connection]struct{}),
	}
}

func (s *server) SetGeneration(generation uint32) {
	atomic.StoreUint32(&s.generation, generation)
}

func (s *server) Listen() error {
	var err error
	s.listener, err = s.listen()
	return err
}

func (s *server) accept() (connection.Connection, error) {
	tcpConn, err := s.listener.Accept()
	if err != nil {
		return nil, err
	}
	conn, err := connection.UpgradeFrom(tcpConn, s.self, atomic.LoadUint32(&s.generation))
	if err != nil {
		tcpConn.Close()
		return nil, err
	}
	return conn, nil
}

func (s *server) Serve() {
	for {
		conn, err := s.accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			log.Infof("Accept failed: %v", err)
			continue
		}
		s.track(conn, true)
		go s.handle(conn)
	}
}

func (s *server) track(conn connection.Connection, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Close closes the listener and all accepted connections.
func (s *server) Close() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if s.unix {
		os.Remove(s.self.SockFile())
	}
}

func (s *server) handle(conn connection.Connection) {
	defer s.track(conn, false)
	defer conn.Close()
	if n, err := s.handler.Handle(conn); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Warnf("handle %s conn from %s: %v after handled %d messages", conn.Type(), conn.Src(), err, n)
	}
}
