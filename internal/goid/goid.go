// Package goid reads the id of the calling goroutine.
package goid

import (
	"runtime"
	"strconv"
	"strings"
)

// Get returns the id of the calling goroutine.
//
// The id is parsed from the header line of [runtime.Stack]. It is only used as a map key
// for state that must not be shared between goroutines, such as the chain of services
// currently being constructed.
func Get() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	fields := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))
	if len(fields) == 0 {
		return 0
	}

	id, _ := strconv.ParseInt(fields[0], 10, 64)
	return id
}
