// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrappers
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ternarybob/arbor"
)

// SafeGo runs fn in a goroutine with panic recovery and marks wg done when it returns.
// A panic is logged and swallowed so sibling goroutines keep running.
//
// Example:
//
//	var wg sync.WaitGroup
//	wg.Add(1)
//	common.SafeGo(logger, "enrich", &wg, func() {
//	    results[i] = backend.Enrich(ctx, candidate)
//	})
//	wg.Wait()
func SafeGo(logger arbor.ILogger, name string, wg *sync.WaitGroup, fn func()) {
	go func() {
		defer func() {
			if wg != nil {
				wg.Done()
			}
		}()
		defer func() {
			if r := recover(); r != nil {
				stackTrace := GetStackTrace()
				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine")
				} else {
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}
			}
		}()

		fn()
	}()
}

// GetStackTrace returns the current goroutine's stack trace.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false) // false = current goroutine only
	return string(buf[:n])
}
