package main

import (
	"fmt"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/observe"

	"github.com/scott-cotton/cli"
)

func get(cfg *GetConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Get.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: get requires one argument, a kinded path", cli.ErrUsage)
	}
	kp := args[0]
	args = args[1:]
	if len(args) == 0 {
		args = []string{"-"}
	}
	for i, file := range args {
		if i > 0 && !cfg.outFormat().IsJSON() {
			fmt.Fprintln(cc.Out, "---")
		}
		if err := getFile(cfg, cc, kp, file); err != nil {
			return fmt.Errorf("error getting %s from %s: %w", kp, file, err)
		}
	}
	return nil
}

func getFile(cfg *GetConfig, cc *cli.Context, kp, file string) error {
	d, f, err := readDoc(cfg.MainConfig, cc, file)
	if err != nil {
		return err
	}
	doc, err := codec.Decode(d, f)
	if err != nil {
		return err
	}
	tree, err := observe.New(doc)
	if err != nil {
		return err
	}
	v, err := tree.ReadKPath(kp)
	if err != nil {
		return fmt.Errorf("%w: %w", cli.ErrUsage, err)
	}
	if v == nil {
		return fmt.Errorf("no value at %q", kp)
	}
	return codec.Encode(cc.Out, v, cfg.outFormat())
}
