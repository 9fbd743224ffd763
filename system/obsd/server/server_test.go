package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/observe"
)

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg *Config) *Server {
	t.Helper()
	s, err := New(context.Background(), &Spec{Config: cfg, Log: testLog()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func connect(t *testing.T, s *Server) (*Client, chan *ChangeParams) {
	t.Helper()
	ctx := context.Background()
	a, b := net.Pipe()
	go s.ServeConn(ctx, "pipe", a)
	changes := make(chan *ChangeParams, 16)
	c := NewClient(ctx, b, func(p *ChangeParams) { changes <- p })
	t.Cleanup(func() { c.Close() })
	return c, changes
}

func nextChange(t *testing.T, changes chan *ChangeParams) *ChangeParams {
	t.Helper()
	select {
	case p := <-changes:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func jsonEq(t *testing.T, want string, got json.RawMessage) {
	t.Helper()
	v, err := codec.Decode(got, codec.JSONFormat)
	if err != nil {
		t.Fatalf("decode %s: %v", got, err)
	}
	d, _ := v.MarshalJSON()
	if string(d) != want {
		t.Errorf("got %s want %s", d, want)
	}
}

func TestSession(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, DefaultConfig())
	c, changes := connect(t, s)

	if err := c.Set(ctx, "", codec.MustDecode(`{a: {b: 1}}`)); err != nil {
		t.Fatal(err)
	}
	id, err := c.Subscribe(ctx, "a.b", false)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "a.b", codec.MustDecode("2")); err != nil {
		t.Fatal(err)
	}
	p := nextChange(t, changes)
	if p.ID != id || len(p.Path) != 0 {
		t.Errorf("unexpected change %+v", p)
	}
	jsonEq(t, "2", p.Value)
	jsonEq(t, "1", p.PrevValue)

	v, err := c.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	jsonEq(t, `{"b":2}`, v)

	if err := c.Delete(ctx, "a.b"); err != nil {
		t.Fatal(err)
	}
	p = nextChange(t, changes)
	if p.Value != nil {
		t.Errorf("expected undefined value, got %s", p.Value)
	}
	jsonEq(t, "2", p.PrevValue)
	if v, err := c.Get(ctx, "a.b"); err != nil || v != nil {
		t.Errorf("expected undefined after delete, got %s %v", v, err)
	}

	if err := c.Unsubscribe(ctx, id); err != nil {
		t.Fatal(err)
	}
	if err := c.Unsubscribe(ctx, id); err == nil {
		t.Errorf("expected error unsubscribing twice")
	}
}

func TestSessionArrays(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, DefaultConfig())
	c, changes := connect(t, s)

	if err := c.Assign(ctx, "", codec.MustDecode(`{list: [1], n: 0}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Subscribe(ctx, "", true); err != nil {
		t.Fatal(err)
	}
	if err := c.Push(ctx, "list", codec.MustDecode("2"), codec.MustDecode("3")); err != nil {
		t.Fatal(err)
	}
	p := nextChange(t, changes)
	if diff := cmp.Diff([]string{"list"}, p.Path); diff != "" {
		t.Errorf("path (-want +got):\n%s", diff)
	}
	jsonEq(t, "[1,2,3]", p.Value)

	removed, err := c.Splice(ctx, "list", 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed: %v", removed)
	}
	jsonEq(t, "1", removed[0])
	nextChange(t, changes)

	v, err := c.Get(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	jsonEq(t, `{"list":[2,3],"n":0}`, v)

	if err := c.Push(ctx, "n", codec.MustDecode("1")); err == nil {
		t.Errorf("expected error pushing to a number")
	}
	if _, err := c.Get(ctx, "a["); err == nil {
		t.Errorf("expected error for bad path")
	}
}

func TestSessionEndDropsSubscriptions(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, DefaultConfig())
	a, b := net.Pipe()
	done := make(chan error, 1)
	go func() { done <- s.ServeConn(ctx, "pipe", a) }()
	c := NewClient(ctx, b, nil)
	if _, err := c.Subscribe(ctx, "", false); err != nil {
		t.Fatal(err)
	}
	c.Close()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not end")
	}
	s.Do(func(tr *observe.Tree) error {
		if n := tr.RootNode().ListenerCount(); n != 0 {
			t.Errorf("listeners left: %d", n)
		}
		return nil
	})
	if n := s.SessionCount(); n != 0 {
		t.Errorf("sessions left: %d", n)
	}
}

func TestTCP(t *testing.T) {
	ctx := context.Background()
	s := newTestServer(t, DefaultConfig())
	if err := s.StartTCP("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	c, err := Dial(ctx, s.TCPAddr(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Set(ctx, "x", codec.MustDecode("[true]")); err != nil {
		t.Fatal(err)
	}
	v, err := c.Get(ctx, "x[0]")
	if err != nil {
		t.Fatal(err)
	}
	jsonEq(t, "true", v)
	if err := s.StopTCP(); err != nil {
		t.Fatal(err)
	}
	if s.TCPAddr() != "" {
		t.Errorf("address after stop")
	}
}

func TestPersistedServer(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg, err := ParseConfig([]byte("persist:\n  sqlite: " + filepath.Join(dir, "obs.db") + "\n  saveTimeout: 1h\n"))
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(ctx, &Spec{Config: cfg, Log: testLog()})
	if err != nil {
		t.Fatal(err)
	}
	c, _ := connect(t, s)
	if err := c.Set(ctx, "k", codec.MustDecode("{v: 1}")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}

	s2 := newTestServer(t, cfg)
	c2, _ := connect(t, s2)
	v, err := c2.Get(ctx, "k.v")
	if err != nil {
		t.Fatal(err)
	}
	jsonEq(t, "1", v)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("document: doc.yaml\npersist:\n  dir: /tmp/x\n  saveTimeout: 250ms\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Addr != DefaultConfig().Addr || cfg.Document != "doc.yaml" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if p := cfg.Persist; p.Name != "document" || p.Format != "json" || p.saveTimeout != 250*time.Millisecond {
		t.Errorf("unexpected persist config %+v", p)
	}
	if _, err := ParseConfig([]byte("persist: {dir: a, sqlite: b}\n")); err == nil {
		t.Errorf("expected error with both dir and sqlite")
	}
	if _, err := ParseConfig([]byte("unknown: 1\n")); err == nil {
		t.Errorf("expected error for unknown field")
	}
}
