package di

import (
	"context"
	"reflect"
	"slices"

	"github.com/sectrean/dicore/internal/goid"
)

// creationStack is the chain of services being created by one goroutine.
//
// Only the owning goroutine reads or writes a creationStack, so it is not locked.
type creationStack struct {
	gid    int64
	frames []creationFrame
}

type creationFrame struct {
	key     reflect.Type
	scopeID string
	ctx     context.Context
}

// push adds key to the stack, or returns a [*CircularDependencyError]
// if key is already being created.
func (s *creationStack) push(key reflect.Type, scopeID string) error {
	i := slices.IndexFunc(s.frames, func(f creationFrame) bool {
		return f.key == key
	})
	if i >= 0 {
		cycle := make([]reflect.Type, 0, len(s.frames)-i+1)
		for _, f := range s.frames[i:] {
			cycle = append(cycle, f.key)
		}
		cycle = append(cycle, key)

		return &CircularDependencyError{Cycle: cycle}
	}

	s.frames = append(s.frames, creationFrame{key: key, scopeID: scopeID})
	return nil
}

func (s *creationStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *creationStack) top() *creationFrame {
	if len(s.frames) == 0 {
		return nil
	}
	return &s.frames[len(s.frames)-1]
}

// parentContext returns the tracing context of the service that depends on the top frame.
func (s *creationStack) parentContext() context.Context {
	if len(s.frames) < 2 || s.frames[len(s.frames)-2].ctx == nil {
		return context.Background()
	}
	return s.frames[len(s.frames)-2].ctx
}

// stack returns the creation stack of the calling goroutine, creating it if needed.
func (c *Container) stack() *creationStack {
	gid := goid.Get()
	s, _ := c.stacks.LoadOrCompute(gid, func() *creationStack {
		return &creationStack{gid: gid}
	})
	return s
}

// release drops the stack once nothing is being created.
func (c *Container) release(s *creationStack) {
	if len(s.frames) == 0 {
		c.stacks.Delete(s.gid)
	}
}

// callerScope returns the scope a Get call on the goroutine owning s resolves in.
//
// Inside a constructor this is the scope of the service being created.
// Otherwise it is the scope made current by [Container.WithScope], if any.
func (c *Container) callerScope(s *creationStack) string {
	if f := s.top(); f != nil {
		return f.scopeID
	}
	if id, ok := c.current.Load(s.gid); ok {
		return id
	}
	return ""
}
