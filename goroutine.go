package di

import (
	"runtime"
	"strconv"
	"strings"
)

// goid returns the current goroutine ID.
// Resolution chains are keyed by it so nested resolutions on one goroutine
// share a single logical call stack.
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	idField := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(idField, 10, 64)
	return id
}
