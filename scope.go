package di

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/sectrean/dicore/internal/errors"
	"github.com/sectrean/dicore/internal/goid"
)

// scope holds the Scoped services created for one unit of work.
type scope struct {
	id        string
	seq       uint64
	instances map[reflect.Type]any
	created   []tracked
}

func (s *scope) add(key reflect.Type, val any, d Disposer) {
	s.instances[key] = val
	if d != nil {
		s.created = append(s.created, tracked{key: key, disposer: d})
	}
}

// close empties the scope and returns its services to dispose, most recent first.
// It must be called while holding the Container lock.
func (s *scope) close() []tracked {
	pending := make([]tracked, 0, len(s.created))
	for i := len(s.created) - 1; i >= 0; i-- {
		pending = append(pending, s.created[i])
	}

	s.created = nil
	clear(s.instances)
	return pending
}

// CreateScope creates a new scope and returns its ID.
//
// Scoped services resolved with [Container.GetInScope], or from [Container.WithScope],
// are created once per scope. IDs have the form scope_N and are never reused.
func (c *Container) CreateScope() (string, error) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return "", errors.Wrap(ErrContainerDisposed, "di.Container.CreateScope")
	}

	c.scopeSeq++
	sc := &scope{
		id:        fmt.Sprintf("scope_%d", c.scopeSeq),
		seq:       c.scopeSeq,
		instances: make(map[reflect.Type]any),
	}
	c.scopes[sc.id] = sc
	c.mu.Unlock()

	c.logger.Debug("scope created", zap.String("scope", sc.id))

	return sc.id, nil
}

// DisposeScope disposes the Scoped services of a scope in the reverse order they were
// created, and removes the scope.
//
// Resolving services in a scope while it is being disposed is not supported.
// Returns [ErrScopeNotFound] if the scope does not exist or was already disposed.
func (c *Container) DisposeScope(id string) error {
	c.mu.Lock()
	sc, ok := c.scopes[id]
	if !ok {
		c.mu.Unlock()
		return errors.Wrapf(ErrScopeNotFound, "di.Container.DisposeScope %s", id)
	}
	delete(c.scopes, id)
	pending := sc.close()
	c.mu.Unlock()

	var errs errors.MultiError
	for _, t := range pending {
		errs = errs.Append(c.dispose(t))
	}

	c.logger.Debug("scope disposed",
		zap.String("scope", id),
		zap.Int("disposed", len(pending)),
	)

	return errs.Wrapf("di.Container.DisposeScope %s", id)
}

// GetScopedInstance returns the service created for key in a scope, if any.
// It never creates a service.
func (c *Container) GetScopedInstance(id string, key reflect.Type) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, ok := c.scopes[id]
	if !ok {
		return nil, false
	}

	val, ok := sc.instances[key]
	return val, ok
}

// GetInScope resolves the service registered for key in the scope with the given ID.
//
// Scoped services are created once per scope. Other lifetimes behave as with [Container.Get].
func (c *Container) GetInScope(id string, key reflect.Type) (any, error) {
	if key == nil {
		return nil, errors.New("di.Container.GetInScope: key is nil")
	}

	c.mu.Lock()
	_, ok := c.scopes[id]
	c.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(ErrScopeNotFound, "di.Container.GetInScope %s %s", id, key)
	}

	st := c.stack()
	defer c.release(st)

	val, err := c.resolve(st, key, id)
	if err != nil {
		return nil, errors.Wrapf(err, "di.Container.GetInScope %s %s", id, key)
	}

	return val, nil
}

// WithScope creates a scope, makes it the current scope of the calling goroutine,
// and calls fn with its ID. The scope is disposed when fn returns or panics.
//
// While fn runs, [Container.Get] on the same goroutine resolves Scoped services in the new scope.
// Nested calls restore the previous current scope when they return. Goroutines started
// by fn do not inherit the scope; pass the ID to [Container.GetInScope] instead.
//
// The returned error joins the error from fn and any errors from disposing the scope.
func (c *Container) WithScope(fn func(scopeID string) error) (err error) {
	id, err := c.CreateScope()
	if err != nil {
		return errors.Wrap(err, "di.Container.WithScope")
	}

	gid := goid.Get()
	prev, hadPrev := c.current.Load(gid)
	c.current.Store(gid, id)

	defer func() {
		if hadPrev {
			c.current.Store(gid, prev)
		} else {
			c.current.Delete(gid)
		}

		err = errors.Join(err, c.DisposeScope(id))
	}()

	return fn(id)
}

// CurrentScope returns the ID of the scope made current by [Container.WithScope]
// on the calling goroutine, or an empty string.
func (c *Container) CurrentScope() string {
	id, _ := c.current.Load(goid.Get())
	return id
}
