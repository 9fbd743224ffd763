package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrBadName  = errors.New("bad document name")
)

// Snapshot is a stored document.
type Snapshot struct {
	Data     []byte
	Modified time.Time
}

// Backend stores named documents.  Load returns ErrNotFound for
// documents that were never saved or have been deleted.
type Backend interface {
	Load(ctx context.Context, name string) (*Snapshot, error)
	Save(ctx context.Context, name string, snap *Snapshot) error
	Delete(ctx context.Context, name string) error
}

// FileBackend stores each document as a file in Dir.  The file
// modification time is the document's.
type FileBackend struct {
	Dir string
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return nil
}

func (b *FileBackend) path(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	return filepath.Join(b.Dir, name), nil
}

func (b *FileBackend) Load(ctx context.Context, name string) (*Snapshot, error) {
	p, err := b.path(name)
	if err != nil {
		return nil, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	d, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Data: d, Modified: st.ModTime()}, nil
}

// Save writes to a temporary file and renames it into place.
func (b *FileBackend) Save(ctx context.Context, name string, snap *Snapshot) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(b.Dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(b.Dir, "."+name+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(snap.Data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if !snap.Modified.IsZero() {
		if err := os.Chtimes(tmp, snap.Modified, snap.Modified); err != nil {
			return err
		}
	}
	return os.Rename(tmp, p)
}

func (b *FileBackend) Delete(ctx context.Context, name string) error {
	p, err := b.path(name)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
