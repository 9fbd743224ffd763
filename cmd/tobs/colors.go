package main

import (
	"fmt"

	"github.com/fatih/color"
)

type palette struct {
	Path, Delete, Insert func(a ...any) string
}

func newPalette(on bool) *palette {
	if !on {
		return &palette{Path: fmt.Sprint, Delete: fmt.Sprint, Insert: fmt.Sprint}
	}
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return &palette{
		Path:   mk(color.FgCyan, color.Bold),
		Delete: mk(color.FgRed),
		Insert: mk(color.FgGreen),
	}
}
