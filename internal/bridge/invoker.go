package bridge

import (
	"runtime"
	"strings"
)

// CallerInvoker returns the source file of the outermost frame on the
// current goroutine's stack, skipping runtime and test harness frames. For a
// program that is the file holding main.
func CallerInvoker() string {
	pcs := make([]uintptr, 64)
	for {
		n := runtime.Callers(1, pcs)
		if n < len(pcs) {
			pcs = pcs[:n]
			break
		}
		pcs = make([]uintptr, 2*len(pcs))
	}

	var outermost string
	frames := runtime.CallersFrames(pcs)
	for {
		frame, more := frames.Next()
		if frame.File != "" && !harnessFrame(frame.Function) {
			outermost = frame.File
		}
		if !more {
			break
		}
	}
	return outermost
}

func harnessFrame(function string) bool {
	return strings.HasPrefix(function, "runtime.") || strings.HasPrefix(function, "testing.")
}
