package di

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/sectrean/dicore/internal/errors"
)

// Register registers a constructor function for the service key.
//
// The constructor must be a function returning a service assignable to key,
// and optionally an error. Its parameters are resolved from the Container when
// the service is created. A parameter of type [Resolver] receives the Container itself.
//
// Registering the same key and environment again replaces the previous registration.
//
// Available options:
//   - [Lifetime] is used to specify how services are created when resolved.
//   - [InEnvironment] binds the registration to a named environment.
//   - [WithDefault] provides a default value for a constructor parameter.
//   - [WithDisposeFunc] specifies a function to be called when the service is disposed.
//   - [IgnoreDispose] specifies that the service should not be disposed by the Container.
func (c *Container) Register(key reflect.Type, constructor any, opts ...RegisterOption) error {
	if key == nil {
		return errors.New("di.Container.Register: key is nil")
	}

	reg, err := newConstructorRegistration(key, constructor)
	if err == nil {
		err = reg.applyOptions(opts)
	}
	if err == nil {
		err = c.add(reg)
	}
	if err != nil {
		return errors.Wrapf(err, "di.Container.Register %s", key)
	}

	return nil
}

// RegisterFactory registers a factory function for the service key.
//
// The factory takes no parameters and its result must be assignable to key.
// The result is checked when the service is created.
func (c *Container) RegisterFactory(key reflect.Type, factory func() (any, error), opts ...RegisterOption) error {
	if key == nil {
		return errors.New("di.Container.RegisterFactory: key is nil")
	}

	reg, err := newFactoryRegistration(key, factory)
	if err == nil {
		err = reg.applyOptions(opts)
	}
	if err == nil {
		err = c.add(reg)
	}
	if err != nil {
		return errors.Wrapf(err, "di.Container.RegisterFactory %s", key)
	}

	return nil
}

// RegisterInstance registers an existing instance for the service key.
//
// If the instance implements [Initializer], Initialize is called before it is registered.
// The instance is disposed with the Container unless [IgnoreDispose] is used.
// Instances are never cached or constructed, so the [Lifetime] option has no effect.
func (c *Container) RegisterInstance(key reflect.Type, instance any, opts ...RegisterOption) error {
	if key == nil {
		return errors.New("di.Container.RegisterInstance: key is nil")
	}

	reg, err := newInstanceRegistration(key, instance)
	if err == nil {
		err = reg.applyOptions(opts)
	}
	if err == nil && c.isDisposed() {
		err = ErrContainerDisposed
	}
	if err == nil {
		if initErr := callInitialize(instance); initErr != nil {
			err = &ServiceCreationError{Key: key, ParamIndex: -1, Cause: initErr}
		}
	}
	if err == nil {
		err = c.add(reg)
	}
	if err != nil {
		return errors.Wrapf(err, "di.Container.RegisterInstance %s", key)
	}

	return nil
}

func (c *Container) add(reg *registration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return ErrContainerDisposed
	}

	replaced := c.registry.add(reg)
	c.cache.Remove(reg.key)
	c.syncGraph(reg.key)
	c.status[reg.key] = StatusRegistered

	if reg.hasInstance && !c.isTracked(reg.instance) {
		if d := reg.disposerFor(reg.instance); d != nil {
			c.tracked = append(c.tracked, tracked{key: reg.key, val: reg.instance, disposer: d})
		}
	}

	c.logger.Debug("service registered",
		zap.Stringer("service", reg.key),
		zap.String("kind", reg.kind()),
		zap.Stringer("lifetime", reg.lifetime),
		zap.String("environment", environmentName(reg.environment)),
		zap.Bool("replaced", replaced != nil),
	)

	return nil
}

// syncGraph sets the dependencies of key to those of its registration in the active environment.
func (c *Container) syncGraph(key reflect.Type) {
	if reg := c.registry.find(key, c.environment); reg != nil {
		c.graph.SetDependencies(key, reg.graphDeps())
	}
}

// isTracked returns true if val is already tracked for disposal.
// An instance registered more than once is still disposed once.
func (c *Container) isTracked(val any) bool {
	for _, t := range c.tracked {
		if sameInstance(t.val, val) {
			return true
		}
	}
	return false
}

func (c *Container) isDisposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.disposed
}
