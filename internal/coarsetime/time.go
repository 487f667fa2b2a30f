// Package coarsetime is a clock refreshed every 50ms, for timestamps on hot
// paths (connection release and acquire) where precision does not matter.
package coarsetime

import (
	"sync/atomic"
	"time"
)

// Resolution is the refresh interval of the clock.
const Resolution = 50 * time.Millisecond

var now atomic.Int64

func init() {
	now.Store(time.Now().UnixNano())

	ticker := time.NewTicker(Resolution)
	go func() {
		for t := range ticker.C {
			now.Store(t.UnixNano())
		}
	}()
}

// Now returns the current time, at most Resolution old. It carries no
// monotonic reading.
func Now() time.Time {
	return time.Unix(0, now.Load())
}

// Since is time.Since on the coarse clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}
