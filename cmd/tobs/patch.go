package main

import (
	"fmt"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/observe"
	"github.com/signadot/tony-observe/patch"

	"github.com/scott-cotton/cli"
)

func patchDoc(cfg *PatchConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Patch.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: patch requires a document and a patch", cli.ErrUsage)
	}
	d, f, err := readDoc(cfg.MainConfig, cc, args[0])
	if err != nil {
		return err
	}
	doc, err := codec.Decode(d, f)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[0], err)
	}
	tree, err := observe.New(doc)
	if err != nil {
		return err
	}
	n, err := tree.NodeAtKPath(cfg.At)
	if err != nil {
		return fmt.Errorf("%w: -at: %w", cli.ErrUsage, err)
	}
	// patches may be written in yaml, the patch library reads json
	d, f, err = readDoc(cfg.MainConfig, cc, args[1])
	if err != nil {
		return err
	}
	p, err := codec.Decode(d, f)
	if err != nil {
		return fmt.Errorf("error decoding %s: %w", args[1], err)
	}
	pj, err := codec.EncodeBytes(p, codec.JSONFormat)
	if err != nil {
		return err
	}
	pr := &printer{w: cc.Out, format: cfg.outFormat(), pal: newPalette(cfg.useColor(cc.Out))}
	tree.Register(n, false, pr.listener("patch", n))
	if cfg.Merge {
		err = patch.ApplyMergePatch(tree, n, pj)
	} else {
		err = patch.ApplyJSONPatch(tree, n, pj)
	}
	if err != nil {
		return err
	}
	if pr.err != nil {
		return pr.err
	}
	return codec.Encode(cc.Out, tree.RootValue(), cfg.outFormat())
}
