package di

import (
	"sync"
)

var (
	defaultMu        sync.Mutex
	defaultContainer *Container
)

// Default returns the process-wide Container, creating it with [DefaultConfig] on first use.
//
// Prefer passing a *Container to the code that needs it; Default is meant for
// application entry points.
func Default() *Container {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultContainer == nil {
		c, err := NewContainer()
		if err != nil {
			// The default options are always valid
			panic(err)
		}
		defaultContainer = c
	}

	return defaultContainer
}

// SetDefault replaces the process-wide Container returned by [Default].
// Passing nil makes the next call to Default create a new one.
//
// The previous Container is not disposed.
func SetDefault(c *Container) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	defaultContainer = c
}
