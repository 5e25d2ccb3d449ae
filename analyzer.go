package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// DependencyReport describes the dependency graph of the registered constructors.
//
// The graph is built from constructor parameter types when services are registered.
// Factories have no parameters to inspect, so dependencies they resolve at runtime are
// not part of it. Cycles through factories are still detected by [Container.Get].
type DependencyReport struct {
	// Cycles lists each cycle found, starting and ending with the same service.
	Cycles [][]reflect.Type

	// Depths is the length of the longest dependency chain of each service.
	Depths map[reflect.Type]int

	// Roots are the services without dependencies, in registration order.
	Roots []reflect.Type

	TotalServices int
}

// AnalyzeDependencies reports cycles, depths, and roots of the dependency graph.
func (c *Container) AnalyzeDependencies() DependencyReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.graph.Analyze()
	return DependencyReport{
		Cycles:        a.Cycles,
		Depths:        a.Depths,
		Roots:         a.Roots,
		TotalServices: a.TotalServices,
	}
}

// DependencyDepth returns the length of the longest dependency chain starting at key.
// Services without dependencies have a depth of 0.
func (c *Container) DependencyDepth(key reflect.Type) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.graph.Depth(key)
}

// CreationPath returns key and the services it depends on, in the order they are created:
// dependencies first, in parameter order, ending with key.
func (c *Container) CreationPath(key reflect.Type) []reflect.Type {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.graph.CreationPath(key)
}

// Warmup resolves every registered service on the creation path of key, in order,
// so cacheable services are created ahead of the first request.
func (c *Container) Warmup(key reflect.Type) error {
	for _, dep := range c.CreationPath(key) {
		if !c.Has(dep) {
			continue
		}

		_, err := c.Get(dep)
		if err != nil {
			return errors.Wrapf(err, "di.Container.Warmup %s", key)
		}
	}

	return nil
}

// ServiceInfo describes a registered service.
type ServiceInfo struct {
	Key        reflect.Type
	Registered bool

	// Kind is "constructor", "factory", or "instance".
	Kind     string
	Lifetime Lifetime

	// Environment is the environment of the registration active in the current environment.
	Environment string

	// Environments lists every environment the service is registered for.
	Environments []string

	Status       ServiceStatus
	Dependencies []reflect.Type

	// Cached is true if the service is in the service cache.
	// CacheEntry is only set when the cache reports entry statistics.
	Cached     bool
	CacheEntry CacheEntry
}

// Inspect returns details about the service registered for key.
func (c *Container) Inspect(key reflect.Type) ServiceInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := ServiceInfo{
		Key:    key,
		Status: StatusUnknown,
	}

	reg := c.registry.find(key, c.environment)
	if reg == nil {
		return info
	}

	info.Registered = true
	info.Kind = reg.kind()
	info.Lifetime = reg.lifetime
	info.Environment = environmentName(reg.environment)
	info.Environments = c.registry.environments(key)
	info.Status = c.status[key]
	info.Dependencies = reg.graphDeps()

	if ci, ok := c.cache.(cacheInspector); ok {
		info.CacheEntry, info.Cached = ci.Entry(key)
	}

	return info
}
