package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
	"github.com/signadot/tony-observe/persist"
)

// Server represents the obsd document server.  It owns one observable
// tree shared by all sessions.
type Server struct {
	Spec Spec

	// mu confines the tree, its listeners included, to one goroutine at
	// a time
	mu        sync.Mutex
	tree      *observe.Tree
	persister *persist.Persister
	backend   io.Closer

	sessionsMu sync.Mutex
	sessions   map[string]*Session

	// TCP listener for client connections
	tcpListener *TCPListener
}

// New creates a new Server instance, loading the configured document
// and any persisted state.
func New(ctx context.Context, spec *Spec) (*Server, error) {
	if spec.Log == nil {
		spec.Log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slogLevel(),
		}))
	}
	if spec.Config == nil {
		spec.Config = DefaultConfig()
	}
	cfg := spec.Config

	doc := ir.FromKeyVals(nil)
	if cfg.Document != "" {
		d, err := os.ReadFile(cfg.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		doc, err = codec.Decode(d, codec.FormatOfPath(cfg.Document))
		if err != nil {
			return nil, err
		}
	}
	tree, err := observe.New(doc, observe.WithMaxDepth(cfg.MaxDepth))
	if err != nil {
		return nil, err
	}
	s := &Server{
		Spec:     *spec,
		tree:     tree,
		sessions: map[string]*Session{},
	}
	if cfg.Persist != nil {
		if err := s.startPersist(ctx, cfg.Persist); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func slogLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func (s *Server) startPersist(ctx context.Context, pc *PersistConfig) error {
	f, err := codec.ParseFormat(pc.Format)
	if err != nil {
		return err
	}
	var backend persist.Backend
	if pc.SQLite != "" {
		db, err := persist.OpenSQLite(pc.SQLite)
		if err != nil {
			return err
		}
		s.backend = db
		backend = db
	} else {
		backend = &persist.FileBackend{Dir: pc.Dir}
	}
	p, err := persist.Persist(ctx, s.tree, persist.Options{
		Name:        pc.Name,
		Backend:     backend,
		Format:      f,
		SaveTimeout: pc.saveTimeout,
		Log:         s.Spec.Log.With("persist", pc.Name),
	})
	if err != nil {
		if s.backend != nil {
			s.backend.Close()
		}
		return err
	}
	s.persister = p
	return nil
}

// Do runs f with exclusive access to the tree.
func (s *Server) Do(f func(t *observe.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(s.tree)
}

// ServeConn runs a session on rwc until the peer goes away or ctx is
// done.
func (s *Server) ServeConn(ctx context.Context, id string, rwc io.ReadWriteCloser) error {
	session := NewSession(id, rwc, &SessionConfig{Server: s, Log: s.Spec.Log})
	s.sessionsMu.Lock()
	s.sessions[id] = session
	s.sessionsMu.Unlock()
	defer func() {
		s.sessionsMu.Lock()
		delete(s.sessions, id)
		s.sessionsMu.Unlock()
	}()
	return session.Run(ctx)
}

// SessionCount returns the number of active sessions.
func (s *Server) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

// StartTCP starts the TCP listener on the given address.
// The listener runs in a separate goroutine.
func (s *Server) StartTCP(addr string) error {
	if s.tcpListener != nil {
		return fmt.Errorf("TCP listener already running")
	}

	listener, err := NewTCPListener(addr, s)
	if err != nil {
		return err
	}

	s.tcpListener = listener

	go func() {
		if err := listener.Serve(); err != nil {
			s.Spec.Log.Error("TCP listener error", "error", err)
		}
	}()

	return nil
}

// StopTCP stops the TCP listener.
func (s *Server) StopTCP() error {
	if s.tcpListener == nil {
		return nil
	}

	err := s.tcpListener.Close()
	s.tcpListener = nil
	return err
}

// TCPAddr returns the TCP listener's address, or empty string if not running.
func (s *Server) TCPAddr() string {
	if s.tcpListener == nil {
		return ""
	}
	return s.tcpListener.Addr().String()
}

// Close stops the TCP listener, closes all sessions and flushes the
// persisted document.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	errs = append(errs, s.StopTCP())
	s.sessionsMu.Lock()
	for _, session := range s.sessions {
		session.Close()
	}
	s.sessionsMu.Unlock()
	if s.persister != nil {
		s.mu.Lock()
		errs = append(errs, s.persister.Close(ctx))
		s.mu.Unlock()
	}
	if s.backend != nil {
		errs = append(errs, s.backend.Close())
	}
	return errors.Join(errs...)
}
