// Package verbose gates wire-level tracing of rig backends.
package verbose

import (
	"log"
	"os"
	"strconv"
	"sync/atomic"
)

// EnvVar enables tracing at startup when set to a true value
const EnvVar = "RIGD_VERBOSE"

var enabled atomic.Bool

func init() {
	on, _ := strconv.ParseBool(os.Getenv(EnvVar))
	enabled.Store(on)
}

// SetEnabled sets the global verbose logging flag
func SetEnabled(enable bool) {
	enabled.Store(enable)
}

// IsEnabled returns whether verbose logging is enabled
func IsEnabled() bool {
	return enabled.Load()
}

// Printf prints a trace line if verbose logging is enabled
func Printf(format string, args ...interface{}) {
	if enabled.Load() {
		log.Printf("[VERBOSE] "+format, args...)
	}
}
