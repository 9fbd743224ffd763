package server

import (
	"log/slog"
)

// Spec holds the runtime specification for the obsd server.
type Spec struct {
	Config *Config
	Log    *slog.Logger
}
