package main

import (
	"fmt"
	"io"
	"os"

	"github.com/signadot/tony-observe/codec"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Color bool `cli:"name=color desc='output in color'"`

	J bool `cli:"name=j aliases=json desc='do i/o in json'"`
	Y bool `cli:"name=y aliases=yaml desc='do i/o in yaml'"`

	InFormat, OutFormat *codec.Format

	Out      string
	CloseOut func() error

	Main *cli.Command
}

func (cfg *MainConfig) fmtFunc(fps ...**codec.Format) cli.FuncOpt {
	return cli.FuncOpt(func(_ *cli.Context, v string) (any, error) {
		f, err := codec.ParseFormat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		for _, fp := range fps {
			*fp = &f
		}
		return f, nil
	})
}

// inFormat is the format for reading file, from the options if given,
// else from the file name.
func (cfg *MainConfig) inFormat(file string) codec.Format {
	switch {
	case cfg.InFormat != nil:
		return *cfg.InFormat
	case cfg.J:
		return codec.JSONFormat
	case cfg.Y:
		return codec.YAMLFormat
	}
	return codec.FormatOfPath(file)
}

func (cfg *MainConfig) outFormat() codec.Format {
	switch {
	case cfg.OutFormat != nil:
		return *cfg.OutFormat
	case cfg.J:
		return codec.JSONFormat
	}
	return codec.YAMLFormat
}

// useColor reports whether output to w is colored: always with -color,
// never with -color=false, and otherwise when w is a terminal.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name != "color" {
			continue
		}
		if opt.Value != nil {
			return false
		}
		break
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type GetConfig struct {
	*MainConfig
	Get *cli.Command
}

type RunConfig struct {
	*MainConfig
	Deep    []string
	Shallow []string
	When    []string
	Diff    bool `cli:"name=diff desc='print changes as line diffs'"`
	Quiet   bool `cli:"name=q desc='do not print the resulting document'"`
	Run     *cli.Command
}

type PatchConfig struct {
	*MainConfig
	Merge bool `cli:"name=merge desc='the patch is a json merge patch'"`
	At    string `cli:"name=at desc='apply the patch at this path'"`
	Patch *cli.Command
}

type ServeConfig struct {
	*MainConfig
	Serve      *cli.Command
	ConfigFile string `cli:"name=config desc='configuration file (yaml)'"`
	Addr       string `cli:"name=addr desc='TCP listen address' default=localhost:9124"`
	Stdio      bool   `cli:"name=stdio desc='serve a single session on stdin/stdout'"`
}

// readDoc reads file and guesses its format, "-" meaning cc.In.
func readDoc(cfg *MainConfig, cc *cli.Context, file string) ([]byte, codec.Format, error) {
	var (
		r      io.Reader
		format = cfg.inFormat(file)
	)
	if file == "-" {
		r = cc.In
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, format, err
		}
		defer f.Close()
		r = f
	}
	d, err := io.ReadAll(r)
	return d, format, err
}
