package logger

import (
	"bytes"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// goroutineID parses the current goroutine's id out of runtime.Stack. It's
// a known hack, but it's the only way to correlate log lines with the
// connection-handling goroutine that produced them without threading an id
// through every call.
func goroutineID() uint64 {
	b := make([]byte, 64)
	b = b[:runtime.Stack(b, false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	b = b[:bytes.IndexByte(b, ' ')]
	n, _ := strconv.ParseUint(string(b), 10, 64)
	return n
}

// callerInfo returns the file name, function name, and line number skip
// frames up the stack, counted as runtime.Caller counts them: skip 0 is
// callerInfo itself, skip 1 its caller.
func callerInfo(skip int) (file, function string, line int) {
	pc, path, ln, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", "unknown", 0
	}

	funcName := "unknown"
	if fn := runtime.FuncForPC(pc); fn != nil {
		funcName = fn.Name()
		if i := strings.LastIndex(funcName, "/"); i >= 0 {
			funcName = funcName[i+1:]
		}
	}

	return filepath.Base(path), funcName, ln
}
