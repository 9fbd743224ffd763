package debug

import (
	"os"
	"strconv"
)

type debug struct {
	Notify  bool
	Bind    bool
	Mutate  bool
	Persist bool
}

var d *debug

func init() {
	d = &debug{}
	d.Notify = boolEnv("OBS_DEBUG_NOTIFY")
	d.Bind = boolEnv("OBS_DEBUG_BIND")
	d.Mutate = boolEnv("OBS_DEBUG_MUTATE")
	d.Persist = boolEnv("OBS_DEBUG_PERSIST")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Notify() bool {
	return d.Notify
}
func Bind() bool {
	return d.Bind
}
func Mutate() bool {
	return d.Mutate
}
func Persist() bool {
	return d.Persist
}
