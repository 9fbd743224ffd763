package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// TCPListener accepts TCP connections and serves a session on each.
type TCPListener struct {
	listener net.Listener
	server   *Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewTCPListener creates a new TCP listener.
func NewTCPListener(addr string, server *Server) (*TCPListener, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPListener{
		listener: listener,
		server:   server,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Addr returns the listener's network address.
func (l *TCPListener) Addr() net.Addr {
	return l.listener.Addr()
}

// Serve accepts connections and creates sessions.
// Blocks until Close is called or an error occurs.
func (l *TCPListener) Serve() error {
	l.server.Spec.Log.Info("TCP listener started", "addr", l.listener.Addr().String())

	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if l.closed.Load() {
				return nil
			}
			l.server.Spec.Log.Error("accept error", "error", err)
			continue
		}

		l.wg.Add(1)
		go l.handleConnection(conn)
	}
}

func (l *TCPListener) handleConnection(conn net.Conn) {
	defer l.wg.Done()

	id := "tcp-" + uuid.NewString()
	log := l.server.Spec.Log
	log.Debug("new TCP connection", "session", id, "remote", conn.RemoteAddr().String())
	if err := l.server.ServeConn(l.ctx, id, conn); err != nil {
		log.Error("session error", "session", id, "error", err)
	}
	log.Debug("session ended", "session", id)
}

// Close stops accepting, ends the sessions it started and waits for
// them.
func (l *TCPListener) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	if err := l.listener.Close(); err != nil {
		l.server.Spec.Log.Error("error closing listener", "error", err)
	}
	l.cancel()
	l.wg.Wait()
	l.server.Spec.Log.Info("TCP listener stopped")
	return nil
}
