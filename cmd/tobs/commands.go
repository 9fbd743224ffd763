package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand() *cli.Command {
	cfg := &MainConfig{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, []*cli.Opt{
		&cli.Opt{
			Name:        "o",
			Description: "output file (default stdout)",
			Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
		},
		&cli.Opt{
			Name:        "I",
			Aliases:     []string{"ifmt"},
			Description: "input format: json/j, yaml/y",
			Type:        cli.NamedFuncOpt(cfg.fmtFunc(&cfg.InFormat), "(format)"),
		}, &cli.Opt{
			Name:        "O",
			Aliases:     []string{"ofmt"},
			Description: "output format: json/j, yaml/y",
			Type:        cli.NamedFuncOpt(cfg.fmtFunc(&cfg.OutFormat), "(format)"),
		}}...)

	return cli.NewCommandAt(&cfg.Main, "tobs").
		WithSynopsis("tobs [opts] command [opts]").
		WithDescription("tobs observes changes to json and yaml documents.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return tobsMain(cfg, cc, args)
		}).
		WithSubs(
			GetCommand(cfg),
			RunCommand(cfg),
			PatchCommand(cfg),
			ServeCommand(cfg))
}

func GetCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &GetConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Get, "get").
		WithAliases("g").
		WithSynopsis("get <kpath> [files]").
		WithDescription("get the values at a path in documents").
		WithRun(func(cc *cli.Context, args []string) error {
			return get(cfg, cc, args)
		})
}

func RunCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &RunConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts = append(opts,
		&cli.Opt{
			Name:        "w",
			Description: "watch a path with a deep listener",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(appendOpt(&cfg.Deep)), "(kpath)"),
		},
		&cli.Opt{
			Name:        "s",
			Description: "watch a path with a shallow listener",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(appendOpt(&cfg.Shallow)), "(kpath)"),
		},
		&cli.Opt{
			Name:        "when",
			Description: "report changes for which an expression holds",
			Type:        cli.NamedFuncOpt(cli.FuncOpt(appendOpt(&cfg.When)), "(expr)"),
		})
	return cli.NewCommandAt(&cfg.Run, "run").
		WithAliases("r").
		WithSynopsis("run [-w kpath]... [-s kpath]... [-when expr]... [-diff] <doc> <ops>").
		WithDescription("run a script of operations on a document, printing notifications").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc, args)
		})
}

func appendOpt(dst *[]string) func(cc *cli.Context, a string) (any, error) {
	return func(cc *cli.Context, a string) (any, error) {
		*dst = append(*dst, a)
		return 0, nil
	}
}

func PatchCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &PatchConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Patch, "patch").
		WithAliases("p").
		WithSynopsis("patch [-merge] [-at kpath] <doc> <patch>").
		WithDescription("apply a json patch or merge patch to a document, printing notifications").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return patchDoc(cfg, cc, args)
		})
}

func ServeCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ServeConfig{MainConfig: mainCfg, Addr: "localhost:9124"}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Serve, "serve").
		WithSynopsis("serve [-addr <addr>] [-config <file>] [-stdio]").
		WithDescription("run the obsd observation server").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}
