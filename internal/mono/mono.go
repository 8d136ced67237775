// Package mono hands out monotonic nanosecond timestamps for quiescence and
// throttling checks that must never be confused by wall-clock adjustments.
package mono

import "time"

var start = time.Now()

// NanoTime returns nanoseconds elapsed since process start.
func NanoTime() int64 { return time.Since(start).Nanoseconds() }

// Since returns the monotonic duration elapsed since a NanoTime reading.
func Since(ts int64) time.Duration { return time.Duration(NanoTime() - ts) }
