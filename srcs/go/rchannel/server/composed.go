package server

import (
	"sync"

	"github.com/lsds/kungfu-graph/srcs/go/log"
	"github.com/lsds/kungfu-graph/srcs/go/plan"
	"github.com/lsds/kungfu-graph/srcs/go/rchannel/connection"
)

// Server receives messages from remote endpoints
type Server interface {
	Start() error
	Close()
	// SetGeneration sets the group generation sent to connecting clients.
	SetGeneration(uint32)
}

// New creates a new Server
func New(self plan.PeerID, handler connection.Handler, useUnixSock bool) Server {
	tcpServer := newTCPServer(self, handler)
	var unixServer *server
	if useUnixSock {
		unixServer = newUnixServer(self, handler)
	}
	return &composedServer{
		tcpServer:  tcpServer,
		unixServer: unixServer,
	}
}

type composedServer struct {
	tcpServer  *server
	unixServer *server
	wg         sync.WaitGroup
}

func (s *composedServer) servers() []*server {
	var srvs []*server
	for _, srv := range []*server{s.tcpServer, s.unixServer} {
		if srv != nil {
			srvs = append(srvs, srv)
		}
	}
	return srvs
}

func (s *composedServer) SetGeneration(generation uint32) {
	for _, srv := range s.servers() {
		srv.SetGeneration(generation)
	}
}

func (s *composedServer) listen() error {
	for _, srv := range s.servers() {
		if err := srv.Listen(); err != nil {
			return err
		}
	}
	return nil
}

func (s *composedServer) Start() error {
	if err := s.listen(); err != nil {
		for _, srv := range s.servers() {
			srv.Close()
		}
		return err
	}
	for _, srv := range s.servers() {
		s.wg.Add(1)
		go func(srv *server) {
			srv.Serve()
			s.wg.Done()
		}(srv)
	}
	return nil
}

// Close stops accepting new connections and waits for the accept loops to exit.
func (s *composedServer) Close() {
	for _, srv := range s.servers() {
		srv.Close()
	}
	s.wg.Wait()
	log.Debugf("Server Closed")
}
