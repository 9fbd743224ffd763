package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
	"go.lsp.dev/jsonrpc2"
)

// Session serves one JSON-RPC connection.  Its subscriptions live in
// the server's tree and are dropped when the session ends.
type Session struct {
	ID     string
	server *Server
	conn   jsonrpc2.Conn
	log    *slog.Logger

	// guarded by server.mu
	subs map[string]*observe.Subscription

	outgoing  chan *ChangeParams
	done      chan struct{}
	closeOnce sync.Once
}

// SessionConfig contains configuration for creating a session.
type SessionConfig struct {
	Server         *Server
	Log            *slog.Logger
	OutgoingBuffer int // buffer size for change notifications (default 100)
}

// NewSession creates a new session for the given connection.
func NewSession(id string, rwc io.ReadWriteCloser, cfg *SessionConfig) *Session {
	bufSize := cfg.OutgoingBuffer
	if bufSize <= 0 {
		bufSize = 100
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		ID:       id,
		server:   cfg.Server,
		conn:     jsonrpc2.NewConn(jsonrpc2.NewStream(rwc)),
		log:      log.With("session", id),
		subs:     map[string]*observe.Subscription{},
		outgoing: make(chan *ChangeParams, bufSize),
		done:     make(chan struct{}),
	}
}

// Run serves requests and blocks until the connection ends, the
// session is closed or ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.conn.Go(ctx, s.handle)
	go s.sendLoop(ctx)

	stopped := false
	select {
	case <-s.conn.Done():
	case <-s.done:
		stopped = true
	case <-ctx.Done():
		stopped = true
	}
	s.Close()
	<-s.conn.Done()

	s.server.mu.Lock()
	for id, sub := range s.subs {
		sub.Unsubscribe()
		delete(s.subs, id)
	}
	s.server.mu.Unlock()

	err := s.conn.Err()
	if stopped || err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

// Close signals the session to shut down.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *Session) sendLoop(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case p := <-s.outgoing:
			if err := s.conn.Notify(ctx, NotifyChange, p); err != nil {
				s.log.Debug("change notification failed", "error", err)
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.log.Debug("request", "method", req.Method())
	res, err := s.dispatch(req.Method(), req.Params())
	if err != nil {
		s.log.Debug("request failed", "method", req.Method(), "error", err)
	}
	return reply(ctx, res, err)
}

func (s *Session) dispatch(method string, params json.RawMessage) (any, error) {
	switch method {
	case MethodGet:
		var p PathParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		var res ValueResult
		err := s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			var err error
			res.Value, err = rawValue(t.Value(n))
			return err
		})
		if err != nil {
			return nil, err
		}
		return &res, nil

	case MethodSet, MethodAssign:
		var p ValueParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		v, err := decodeValue(p.Value)
		if err != nil {
			return nil, err
		}
		return nil, s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			if method == MethodAssign {
				return t.At(n).Assign(v)
			}
			return t.WriteValue(n, v)
		})

	case MethodDelete:
		var p PathParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		return nil, s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			return t.At(n).Delete()
		})

	case MethodPush:
		var p PushParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		vs, err := decodeValues(p.Values)
		if err != nil {
			return nil, err
		}
		return nil, s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			return t.At(n).Push(vs...)
		})

	case MethodSplice:
		var p SpliceParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		vs, err := decodeValues(p.Values)
		if err != nil {
			return nil, err
		}
		res := &SpliceResult{Removed: []json.RawMessage{}}
		err = s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			removed, err := t.At(n).Splice(p.Start, p.DeleteCount, vs...)
			if err != nil {
				return err
			}
			for _, r := range removed {
				d, err := r.MarshalJSON()
				if err != nil {
					return err
				}
				res.Removed = append(res.Removed, d)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		return res, nil

	case MethodSubscribe:
		var p SubscribeParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		res := &SubscribeResult{ID: uuid.NewString()}
		err := s.locked(p.Path, func(t *observe.Tree, n *observe.PathNode) error {
			s.subs[res.ID] = t.Register(n, p.Shallow, s.listener(res.ID))
			return nil
		})
		if err != nil {
			return nil, err
		}
		return res, nil

	case MethodUnsubscribe:
		var p UnsubscribeParams
		if err := unmarshal(params, &p); err != nil {
			return nil, err
		}
		s.server.mu.Lock()
		defer s.server.mu.Unlock()
		sub, ok := s.subs[p.ID]
		if !ok {
			return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, fmt.Sprintf("no subscription %q", p.ID))
		}
		sub.Unsubscribe()
		delete(s.subs, p.ID)
		return nil, nil

	default:
		return nil, jsonrpc2.NewError(jsonrpc2.MethodNotFound, fmt.Sprintf("method %q not found", method))
	}
}

// listener encodes changes while the tree is locked and queues them for
// sending.
func (s *Session) listener(id string) observe.ListenerFunc {
	return func(_ *ir.Node, info observe.ChangeInfo) {
		p := &ChangeParams{ID: id, Path: info.Path}
		if p.Path == nil {
			p.Path = []string{}
		}
		var err error
		if p.Value, err = rawValue(info.Value); err == nil {
			p.PrevValue, err = rawValue(info.PrevValue)
		}
		if err != nil {
			s.log.Error("encode change", "subscription", id, "error", err)
			return
		}
		select {
		case s.outgoing <- p:
		default:
			s.log.Warn("dropping change notification", "subscription", id)
		}
	}
}

// locked resolves path and runs f with the tree locked.  Errors from f
// are reported as CodeMutation.
func (s *Session) locked(path string, f func(t *observe.Tree, n *observe.PathNode) error) error {
	s.server.mu.Lock()
	defer s.server.mu.Unlock()
	t := s.server.tree
	n, err := t.NodeAtKPath(path)
	if err != nil {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	if err := f(t, n); err != nil {
		return jsonrpc2.NewError(CodeMutation, err.Error())
	}
	return nil
}

func unmarshal(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, "missing params")
	}
	if err := json.Unmarshal(params, v); err != nil {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return nil
}

func rawValue(v *ir.Node) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return v.MarshalJSON()
}

// decodeValue decodes a JSON value keeping object key order.  A
// missing value is undefined.
func decodeValue(d json.RawMessage) (*ir.Node, error) {
	if len(d) == 0 {
		return nil, nil
	}
	v, err := codec.Decode(d, codec.JSONFormat)
	if err != nil {
		return nil, jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return v, nil
}

func decodeValues(ds []json.RawMessage) ([]*ir.Node, error) {
	res := make([]*ir.Node, len(ds))
	for i, d := range ds {
		v, err := decodeValue(d)
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}
