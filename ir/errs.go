package ir

import (
	"errors"
)

var (
	ErrNotContainer = errors.New("not an object or array")
	ErrIndex        = errors.New("bad array index")
)
