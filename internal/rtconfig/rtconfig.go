// Package rtconfig loads the handful of environment-variable knobs the
// runtime core reads directly, and exposes a process-wide singleton the way
// the teacher's cmn.GCO (global config owner) does for its much larger
// configuration surface.
package rtconfig

import (
	"os"
	"runtime"
	"strconv"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/skiplang/skiprt/internal/nlog"
)

type Config struct {
	// NumThreads is the size of the OS-thread pool hosting Processes.
	// SKIP_NUM_THREADS overrides CPU-affinity detection; clamped to >= 1.
	NumThreads int `json:"num_threads"`
}

var (
	once sync.Once
	cfg  Config
)

// Get returns the process-wide configuration, loading it lazily on first
// use (never via a static initializer, per the "avoid static constructors
// whose order is observable" design note).
func Get() *Config {
	once.Do(load)
	return &cfg
}

func load() {
	cfg.NumThreads = runtime.GOMAXPROCS(0)
	if s := os.Getenv("SKIP_NUM_THREADS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			if n < 1 {
				n = 1
			}
			cfg.NumThreads = n
		} else {
			nlog.Warningf("SKIP_NUM_THREADS=%q is not an integer, ignoring", s)
		}
	}
}

// DumpJSON renders the active configuration for debug output.
func DumpJSON() string {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(Get())
	if err != nil {
		return "{}"
	}
	return string(b)
}
