// Package nlog is the runtime's own leveled logger: cheap to call at call
// sites that run on every memoized evaluation, with verbosity gated by a
// single atomic so the hot paths (Invocation lookup, revision insertion)
// can log at high verbosity without a stat/mutex per call.
package nlog

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// v is the global verbosity threshold; FastV(n) reports false while v < n.
var v int32

func SetV(level int32) { atomic.StoreInt32(&v, level) }
func V() int32         { return atomic.LoadInt32(&v) }

// FastV reports whether logging at the given verbosity is enabled. Callers
// guard expensive format-arg construction with it before calling Infof.
func FastV(level int32) bool { return atomic.LoadInt32(&v) >= level }

func Infoln(args ...any)                 { emit("I", fmt.Sprintln(args...)) }
func Infof(format string, args ...any)   { emit("I", fmt.Sprintf(format, args...)) }
func Warningf(format string, args ...any) { emit("W", fmt.Sprintf(format, args...)) }
func Errorln(args ...any)                { emit("E", fmt.Sprintln(args...)) }
func Errorf(format string, args ...any)  { emit("E", fmt.Sprintf(format, args...)) }

func emit(level, msg string) {
	ts := time.Now().Format("15:04:05.000000")
	fmt.Fprintf(os.Stderr, "%s %s %s", level, ts, msg)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		fmt.Fprintln(os.Stderr)
	}
}
