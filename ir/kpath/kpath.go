package kpath

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var ErrSyntax = errors.New("kpath syntax error")

// KPath is a linked list of path segments.  Exactly one of Field and
// Index is set on each segment.  The root path is represented by nil.
type KPath struct {
	Field *string // Object field name
	Index *int    // Array index
	Next  *KPath  // Next segment in path (nil for leaf)
}

func Field(f string) *KPath {
	return &KPath{Field: &f}
}

func Index(i int) *KPath {
	return &KPath{Index: &i}
}

// String returns the kinded path string representation of this KPath.
// Example:
//
//	KPath{Field: &"a", Next: &KPath{Field: &"b"}} → "a.b"
//	KPath{Field: &"a", Next: &KPath{Index: &0}} → "a[0]"
func (p *KPath) String() string {
	if p == nil {
		return ""
	}
	buf := bytes.NewBuffer(nil)
	for x := p; x != nil; x = x.Next {
		if x.Field != nil && buf.Len() > 0 {
			buf.WriteByte('.')
		}
		buf.WriteString(x.SegmentString())
	}
	return buf.String()
}

// SegmentString returns the string representation of this single segment.
// Examples:
//   - KPath{Field: &"a"} → "a"
//   - KPath{Field: &"field name"} → `"field name"`
//   - KPath{Index: &0} → "[0]"
func (p *KPath) SegmentString() string {
	if p == nil {
		return ""
	}
	if p.Field != nil {
		field := *p.Field
		if QuoteField(field) {
			return strconv.Quote(field)
		}
		return field
	}
	if p.Index != nil {
		return fmt.Sprintf("[%d]", *p.Index)
	}
	return ""
}

// Key returns the canonical key of this segment: the field name or
// the base 10 index.
func (p *KPath) Key() string {
	if p.Field != nil {
		return *p.Field
	}
	if p.Index != nil {
		return strconv.Itoa(*p.Index)
	}
	return ""
}

// Keys returns the canonical keys of all segments.
func (p *KPath) Keys() []string {
	var res []string
	for x := p; x != nil; x = x.Next {
		res = append(res, x.Key())
	}
	return res
}

func (p *KPath) Len() int {
	n := 0
	for x := p; x != nil; x = x.Next {
		n++
	}
	return n
}

// Copy returns a deep copy of p.
func (p *KPath) Copy() *KPath {
	if p == nil {
		return nil
	}
	res := p.copySegment()
	res.Next = p.Next.Copy()
	return res
}

func (p *KPath) copySegment() *KPath {
	res := &KPath{}
	if p.Field != nil {
		tmp := *p.Field
		res.Field = &tmp
	}
	if p.Index != nil {
		tmp := *p.Index
		res.Index = &tmp
	}
	return res
}

// Append returns a copy of p followed by a copy of q.
func (p *KPath) Append(q *KPath) *KPath {
	if p == nil {
		return q.Copy()
	}
	res := p.Copy()
	last := res
	for last.Next != nil {
		last = last.Next
	}
	last.Next = q.Copy()
	return res
}

// Parent returns a copy of p without its last segment.
func (p *KPath) Parent() *KPath {
	if p == nil || p.Next == nil {
		return nil
	}
	res := p.copySegment()
	res.Next = p.Next.Parent()
	return res
}

// LastSegment returns the last segment of p.
func (p *KPath) LastSegment() *KPath {
	if p == nil {
		return nil
	}
	x := p
	for x.Next != nil {
		x = x.Next
	}
	return x
}

// Compare compares paths segment by segment.  Indices sort before
// fields and shorter paths before their extensions.
func (p *KPath) Compare(q *KPath) int {
	for p != nil && q != nil {
		switch {
		case p.Index != nil && q.Index != nil:
			if *p.Index != *q.Index {
				if *p.Index < *q.Index {
					return -1
				}
				return 1
			}
		case p.Index != nil:
			return -1
		case q.Index != nil:
			return 1
		default:
			if c := strings.Compare(*p.Field, *q.Field); c != 0 {
				return c
			}
		}
		p, q = p.Next, q.Next
	}
	switch {
	case p == nil && q == nil:
		return 0
	case p == nil:
		return -1
	default:
		return 1
	}
}

// QuoteField reports whether f needs quoting in a kinded path.
func QuoteField(f string) bool {
	if f == "" {
		return true
	}
	for _, r := range f {
		switch r {
		case '.', '[', ']', '{', '}', '"', '\'', '\\', '*':
			return true
		}
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// Parse parses a kinded path string into a KPath structure.
//
// Examples:
//   - "a.b.c" → Object path with 3 segments
//   - "a[0][1]" → Array path with 3 segments
//   - `"x y"[3]` → quoted field then index
//   - "" → Root path (returns nil)
//
// Returns an error wrapping ErrSyntax if the path syntax is invalid.
func Parse(kpath string) (*KPath, error) {
	if kpath == "" {
		return nil, nil
	}
	var (
		head, tail *KPath
		i          int
	)
	add := func(seg *KPath) {
		if head == nil {
			head = seg
		} else {
			tail.Next = seg
		}
		tail = seg
	}
	first := true
	for i < len(kpath) {
		c := kpath[i]
		switch {
		case c == '[':
			j := strings.IndexByte(kpath[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("%w: unterminated index in %q", ErrSyntax, kpath)
			}
			n, err := strconv.Atoi(kpath[i+1 : i+j])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: bad index %q in %q", ErrSyntax, kpath[i+1:i+j], kpath)
			}
			add(Index(n))
			i += j + 1
		case c == '.' && !first:
			f, n, err := parseField(kpath[i+1:])
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, kpath)
			}
			add(Field(f))
			i += n + 1
		case first:
			f, n, err := parseField(kpath)
			if err != nil {
				return nil, fmt.Errorf("%w in %q", err, kpath)
			}
			add(Field(f))
			i += n
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d in %q", ErrSyntax, c, i, kpath)
		}
		first = false
	}
	return head, nil
}

// parseField parses a bare or quoted field at the start of s, returning
// the field and the number of bytes consumed.
func parseField(s string) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("%w: empty field", ErrSyntax)
	}
	switch s[0] {
	case '"':
		for j := 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				j++
			case '"':
				f, err := strconv.Unquote(s[:j+1])
				if err != nil {
					return "", 0, fmt.Errorf("%w: %w", ErrSyntax, err)
				}
				return f, j + 1, nil
			}
		}
		return "", 0, fmt.Errorf("%w: unterminated quote", ErrSyntax)
	case '\'':
		buf := strings.Builder{}
		for j := 1; j < len(s); j++ {
			switch s[j] {
			case '\\':
				if j+1 < len(s) {
					j++
					buf.WriteByte(s[j])
				}
			case '\'':
				return buf.String(), j + 1, nil
			default:
				buf.WriteByte(s[j])
			}
		}
		return "", 0, fmt.Errorf("%w: unterminated quote", ErrSyntax)
	}
	j := strings.IndexAny(s, ".[")
	if j < 0 {
		j = len(s)
	}
	if j == 0 {
		return "", 0, fmt.Errorf("%w: empty field", ErrSyntax)
	}
	f := s[:j]
	if strings.ContainsAny(f, "]{}\"'\\*") {
		return "", 0, fmt.Errorf("%w: field %q must be quoted", ErrSyntax, f)
	}
	return f, j, nil
}
