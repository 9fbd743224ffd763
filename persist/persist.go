package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/debug"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/observe"
)

const DefaultSaveTimeout = 100 * time.Millisecond

type Options struct {
	// Name of the stored document.
	Name    string
	Backend Backend
	Format  codec.Format
	// SaveTimeout is how long to wait after the last change before
	// saving.  Negative saves on every change, synchronously.  0 means
	// DefaultSaveTimeout.
	SaveTimeout time.Duration
	Log         *slog.Logger
}

// Persister saves a tree to a Backend whenever it changes.
//
// The snapshot is encoded in the listener, on the goroutine that owns
// the tree; only saving happens on timer goroutines.
type Persister struct {
	tree *observe.Tree
	opts Options
	sub  *observe.Subscription
	ctx  context.Context

	mu       sync.Mutex
	pending  *Snapshot
	timer    *time.Timer
	err      error
	closed   bool
	modified time.Time

	saveMu sync.Mutex
}

// Persist loads the document named in opts into tree and then saves
// the tree on every change.
//
// The loaded document is assigned onto the root key by key through the
// tree, so listeners fire for loaded values as they do for any write.
// A missing document is not an error.
func Persist(ctx context.Context, tree *observe.Tree, opts Options) (*Persister, error) {
	if opts.Backend == nil {
		return nil, errors.New("persist: no backend")
	}
	if err := checkName(opts.Name); err != nil {
		return nil, err
	}
	if opts.SaveTimeout == 0 {
		opts.SaveTimeout = DefaultSaveTimeout
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	p := &Persister{
		tree: tree,
		opts: opts,
		ctx:  context.WithoutCancel(ctx),
	}
	if err := p.load(ctx); err != nil {
		return nil, err
	}
	p.sub = tree.Register(tree.RootNode(), false, p.onChange)
	return p, nil
}

func (p *Persister) load(ctx context.Context) error {
	snap, err := p.opts.Backend.Load(ctx, p.opts.Name)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	v, err := codec.Decode(snap.Data, p.opts.Format)
	if err != nil {
		return fmt.Errorf("load %s: %w", p.opts.Name, err)
	}
	root := p.tree.RootValue()
	if v.Type != root.Type {
		return fmt.Errorf("load %s: stored %s does not fit %s root", p.opts.Name, v.Type, root.Type)
	}
	if root.Type == ir.ArrayType {
		// replace elements in place, trimming any excess
		if _, err := p.tree.Root().Splice(0, len(root.Values), v.Values...); err != nil {
			return err
		}
	} else if err := p.tree.WriteValue(p.tree.RootNode(), v); err != nil {
		return err
	}
	p.modified = snap.Modified
	if debug.Persist() {
		debug.Logf("loaded %s modified %s\n", p.opts.Name, snap.Modified)
	}
	return nil
}

func (p *Persister) onChange(value *ir.Node, info observe.ChangeInfo) {
	d, err := codec.EncodeBytes(value, p.opts.Format)
	if err != nil {
		p.setErr(fmt.Errorf("encode %s: %w", p.opts.Name, err))
		return
	}
	snap := &Snapshot{Data: d, Modified: time.Now()}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.pending = snap
	if p.opts.SaveTimeout < 0 {
		p.mu.Unlock()
		p.save()
		return
	}
	if p.timer == nil {
		p.timer = time.AfterFunc(p.opts.SaveTimeout, p.save)
	} else {
		p.timer.Reset(p.opts.SaveTimeout)
	}
	p.mu.Unlock()
}

func (p *Persister) save() {
	p.saveMu.Lock()
	defer p.saveMu.Unlock()
	p.mu.Lock()
	snap := p.pending
	p.pending = nil
	p.mu.Unlock()
	if snap == nil {
		return
	}
	if err := p.opts.Backend.Save(p.ctx, p.opts.Name, snap); err != nil {
		p.setErr(fmt.Errorf("save %s: %w", p.opts.Name, err))
		return
	}
	p.mu.Lock()
	p.modified = snap.Modified
	p.mu.Unlock()
	if debug.Persist() {
		debug.Logf("saved %s (%d bytes)\n", p.opts.Name, len(snap.Data))
	}
}

func (p *Persister) setErr(err error) {
	p.opts.Log.Error("persist", "name", p.opts.Name, "error", err)
	p.mu.Lock()
	p.err = err
	p.mu.Unlock()
}

// Flush saves any pending change now.
func (p *Persister) Flush(ctx context.Context) error {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()
	done := make(chan struct{})
	go func() {
		p.save()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.Err()
}

// Close stops listening to the tree and flushes.
func (p *Persister) Close(ctx context.Context) error {
	p.sub.Unsubscribe()
	err := p.Flush(ctx)
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return err
}

// Err returns the last load, encode or save error.
func (p *Persister) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Modified is the modification time of the last document loaded or
// saved.
func (p *Persister) Modified() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.modified
}
