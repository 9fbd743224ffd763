// Package libdiff renders differences between values.
package libdiff

import (
	"strings"

	"github.com/signadot/tony-observe/codec"
	"github.com/signadot/tony-observe/ir"

	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Op is the kind of a diff line.
type Op int

const (
	Equal Op = iota
	Delete
	Insert
)

func (o Op) Prefix() string {
	switch o {
	case Delete:
		return "-"
	case Insert:
		return "+"
	default:
		return " "
	}
}

// Line is one line of a rendered diff, without its newline.
type Line struct {
	Op   Op
	Text string
}

func (l Line) String() string {
	return l.Op.Prefix() + " " + l.Text
}

// Changed reports whether from and to differ.  Undefined differs from
// everything but undefined.
func Changed(from, to *ir.Node) bool {
	if from == nil || to == nil {
		return from != to
	}
	return !ir.Equal(from, to)
}

// Lines diffs the renderings of from and to in format f line by line.
// Undefined renders as no lines.
func Lines(from, to *ir.Node, f codec.Format) ([]Line, error) {
	a, err := render(from, f)
	if err != nil {
		return nil, err
	}
	b, err := render(to, f)
	if err != nil {
		return nil, err
	}
	dmp := diffpatch.New()
	ac, bc, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ac, bc, false), lines)
	var res []Line
	for i := range diffs {
		d := &diffs[i]
		op := Equal
		switch d.Type {
		case diffpatch.DiffDelete:
			op = Delete
		case diffpatch.DiffInsert:
			op = Insert
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			res = append(res, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return res, nil
}

// Text is Lines joined into a single string.
func Text(from, to *ir.Node, f codec.Format) (string, error) {
	lines, err := Lines(from, to, f)
	if err != nil {
		return "", err
	}
	buf := &strings.Builder{}
	for _, l := range lines {
		buf.WriteString(l.String())
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

func render(v *ir.Node, f codec.Format) (string, error) {
	if v == nil {
		return "", nil
	}
	d, err := codec.EncodeBytes(v, f, codec.EncodeIndent(2))
	if err != nil {
		return "", err
	}
	s := string(d)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s, nil
}
