package main

import (
	"fmt"
	"io"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"
	"github.com/signadot/tony-observe/libdiff"
	"github.com/signadot/tony-observe/observe"
	"github.com/signadot/tony-observe/when"

	"github.com/scott-cotton/cli"
)

func run(cfg *RunConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Run.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: run requires a document and a script", cli.ErrUsage)
	}
	d, f, err := readDoc(cfg.MainConfig, cc, args[0])
	if err != nil {
		return err
	}
	doc, err := codec.Decode(d, f)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	d, f, err = readDoc(cfg.MainConfig, cc, args[1])
	if err != nil {
		return err
	}
	script, err := codec.Decode(d, f)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	ops, err := parseOps(script)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	tree, err := observe.New(doc)
	if err != nil {
		return err
	}
	p := &printer{
		w:      cc.Out,
		format: cfg.outFormat(),
		diff:   cfg.Diff,
		pal:    newPalette(cfg.useColor(cc.Out)),
	}
	if err := p.watch(tree, cfg.Deep, cfg.Shallow, cfg.When); err != nil {
		return err
	}
	for _, o := range ops {
		if err := o.apply(tree); err != nil {
			return fmt.Errorf("%s: %w", o, err)
		}
	}
	if p.err != nil || cfg.Quiet {
		return p.err
	}
	return codec.Encode(cc.Out, tree.RootValue(), cfg.outFormat())
}

// printer writes notifications as they are delivered.
type printer struct {
	w      io.Writer
	format codec.Format
	diff   bool
	pal    *palette
	err    error
}

func (p *printer) watch(tree *observe.Tree, deep, shallow, exprs []string) error {
	for _, kp := range deep {
		n, err := tree.NodeAtKPath(kp)
		if err != nil {
			return fmt.Errorf("%w: -w: %w", cli.ErrUsage, err)
		}
		tree.Register(n, false, p.listener("w", n))
	}
	for _, kp := range shallow {
		n, err := tree.NodeAtKPath(kp)
		if err != nil {
			return fmt.Errorf("%w: -s: %w", cli.ErrUsage, err)
		}
		tree.Register(n, true, p.listener("s", n))
	}
	for _, code := range exprs {
		root := tree.At(tree.RootNode())
		if _, err := when.OnExpr(root, code, p.listener("when", tree.RootNode())); err != nil {
			return fmt.Errorf("%w: -when: %w", cli.ErrUsage, err)
		}
	}
	return nil
}

func (p *printer) listener(label string, n *observe.PathNode) observe.ListenerFunc {
	return func(_ *ir.Node, info observe.ChangeInfo) {
		if p.err != nil {
			return
		}
		p.err = p.print(label, n, info)
	}
}

func (p *printer) print(label string, n *observe.PathNode, info observe.ChangeInfo) error {
	at := n.KPath()
	if at == "" {
		at = "$"
	}
	path := n.KPathTo(info.Path)
	if path == "" {
		path = "$"
	}
	if !p.diff {
		_, err := fmt.Fprintf(p.w, "[%s %s] %s: %s -> %s\n", label, at, p.pal.Path(path),
			compact(info.PrevValue), compact(info.Value))
		return err
	}
	lines, err := libdiff.Lines(info.PrevValue, info.Value, p.format)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.w, "[%s %s] %s\n", label, at, p.pal.Path(path)); err != nil {
		return err
	}
	for _, l := range lines {
		s := l.String()
		switch l.Op {
		case libdiff.Delete:
			s = p.pal.Delete(s)
		case libdiff.Insert:
			s = p.pal.Insert(s)
		}
		if _, err := fmt.Fprintln(p.w, s); err != nil {
			return err
		}
	}
	return nil
}

func compact(v *ir.Node) string {
	if v == nil {
		return "undefined"
	}
	d, err := v.MarshalJSON()
	if err != nil {
		return err.Error()
	}
	return string(d)
}
