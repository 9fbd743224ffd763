package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/signadot/tony-observe/ir"
	"go.lsp.dev/jsonrpc2"
)

// Client is a JSON-RPC client of an obsd server.
type Client struct {
	conn     jsonrpc2.Conn
	onChange func(*ChangeParams)
}

// Dial connects to an obsd server over TCP.
func Dial(ctx context.Context, addr string, onChange func(*ChangeParams)) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, conn, onChange), nil
}

// NewClient runs a client on rwc.  onChange, if not nil, receives
// change notifications on the connection's read goroutine.
func NewClient(ctx context.Context, rwc io.ReadWriteCloser, onChange func(*ChangeParams)) *Client {
	c := &Client{
		conn:     jsonrpc2.NewConn(jsonrpc2.NewStream(rwc)),
		onChange: onChange,
	}
	c.conn.Go(ctx, c.handle)
	return c
}

func (c *Client) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	if req.Method() != NotifyChange {
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.MethodNotFound, req.Method()))
	}
	var p ChangeParams
	if err := json.Unmarshal(req.Params(), &p); err != nil {
		return reply(ctx, nil, err)
	}
	if c.onChange != nil {
		c.onChange(&p)
	}
	return reply(ctx, nil, nil)
}

func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.conn.Done()
	return err
}

func (c *Client) call(ctx context.Context, method string, params, result any) error {
	if result == nil {
		result = &json.RawMessage{}
	}
	if _, err := c.conn.Call(ctx, method, params, result); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func raw(v *ir.Node) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return v.MarshalJSON()
}

// Get returns the JSON value at path, nil if undefined.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	var res ValueResult
	if err := c.call(ctx, MethodGet, &PathParams{Path: path}, &res); err != nil {
		return nil, err
	}
	return res.Value, nil
}

func (c *Client) Set(ctx context.Context, path string, v *ir.Node) error {
	d, err := raw(v)
	if err != nil {
		return err
	}
	return c.call(ctx, MethodSet, &ValueParams{Path: path, Value: d}, nil)
}

func (c *Client) Assign(ctx context.Context, path string, v *ir.Node) error {
	d, err := raw(v)
	if err != nil {
		return err
	}
	return c.call(ctx, MethodAssign, &ValueParams{Path: path, Value: d}, nil)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.call(ctx, MethodDelete, &PathParams{Path: path}, nil)
}

func (c *Client) Push(ctx context.Context, path string, vs ...*ir.Node) error {
	p := &PushParams{Path: path}
	for _, v := range vs {
		d, err := raw(v)
		if err != nil {
			return err
		}
		p.Values = append(p.Values, d)
	}
	return c.call(ctx, MethodPush, p, nil)
}

func (c *Client) Splice(ctx context.Context, path string, start, deleteCount int, vs ...*ir.Node) ([]json.RawMessage, error) {
	p := &SpliceParams{Path: path, Start: start, DeleteCount: deleteCount}
	for _, v := range vs {
		d, err := raw(v)
		if err != nil {
			return nil, err
		}
		p.Values = append(p.Values, d)
	}
	var res SpliceResult
	if err := c.call(ctx, MethodSplice, p, &res); err != nil {
		return nil, err
	}
	return res.Removed, nil
}

// Subscribe registers a listener at path and returns its id.
func (c *Client) Subscribe(ctx context.Context, path string, shallow bool) (string, error) {
	var res SubscribeResult
	if err := c.call(ctx, MethodSubscribe, &SubscribeParams{Path: path, Shallow: shallow}, &res); err != nil {
		return "", err
	}
	return res.ID, nil
}

func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	return c.call(ctx, MethodUnsubscribe, &UnsubscribeParams{ID: id}, nil)
}
