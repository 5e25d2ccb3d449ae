package di

import (
	"cmp"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sectrean/dicore/internal/errors"
	"github.com/sectrean/dicore/internal/graph"
)

// Resolver resolves services by key.
//
// A constructor parameter of type Resolver receives the [Container] creating the service.
type Resolver interface {
	Has(key reflect.Type) bool
	Get(key reflect.Type) (any, error)
}

// Container is a dependency injection container.
// It is used to resolve services by first resolving their dependencies.
//
// A Container is safe for concurrent use.
type Container struct {
	id     string
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer

	mu          sync.Mutex
	registry    *registry
	graph       *graph.Graph[reflect.Type]
	cache       ServiceCache
	monitor     PerformanceMonitor
	tracked     []tracked
	status      map[reflect.Type]ServiceStatus
	environment string
	generation  uint64
	disposed    bool
	scopes      map[string]*scope
	scopeSeq    uint64

	stacks  *xsync.MapOf[int64, *creationStack]
	current *xsync.MapOf[int64, string]
}

var _ Resolver = (*Container)(nil)

// NewContainer creates a new [Container] with the provided options.
//
// Available options:
//   - [WithConfig] sets cache, tracking, and environment settings.
//   - [WithEnvironment] sets the initial environment.
//   - [WithLogger] sets the logger.
//   - [WithTracerProvider] creates a span for each service created.
//   - [WithClock] sets the clock used for cache expiry.
//   - [WithServiceCache] replaces the service cache.
//   - [WithSizeEstimator] sets how the memory used by a cached service is estimated.
//   - [WithPerformanceMonitor] replaces the performance monitor.
//   - [WithModule] registers groups of services.
func NewContainer(opts ...ContainerOption) (*Container, error) {
	o := newContainerOptions()

	err := applyOptions(opts, func(opt ContainerOption) error {
		return opt.applyContainer(o)
	})
	if err == nil {
		err = o.cfg.Validate()
	}
	if err != nil {
		return nil, errors.Wrap(err, "di.NewContainer")
	}

	id := uuid.NewString()
	c := &Container{
		id:          id,
		cfg:         o.cfg,
		logger:      o.logger.With(zap.String("container_id", id)),
		tracer:      o.tracerProvider.Tracer(tracerName),
		registry:    newRegistry(),
		graph:       graph.New[reflect.Type](),
		cache:       o.serviceCache(),
		monitor:     o.performanceMonitor(),
		status:      make(map[reflect.Type]ServiceStatus),
		environment: normalizeEnvironment(o.cfg.Environment),
		scopes:      make(map[string]*scope),
		stacks:      xsync.NewMapOf[int64, *creationStack](),
		current:     xsync.NewMapOf[int64, string](),
	}

	c.logger.Debug("container created",
		zap.String("environment", environmentName(c.environment)),
		zap.Int("max_cache_size", c.cfg.MaxCacheSize),
		zap.Int("cache_ttl_seconds", c.cfg.CacheTTLSeconds),
		zap.Bool("enable_service_cache", c.cfg.EnableServiceCache),
		zap.Bool("enable_tracking", c.cfg.EnableTracking),
	)

	if len(o.modules) > 0 {
		err = c.Install(o.modules...)
		if err != nil {
			return nil, errors.Wrap(err, "di.NewContainer")
		}
	}

	return c, nil
}

const tracerName = "github.com/sectrean/dicore"

// ID returns the unique identifier of the Container.
// It is attached to every log entry and metric.
func (c *Container) ID() string {
	return c.id
}

// Config returns the configuration the Container was created with.
func (c *Container) Config() Config {
	return c.cfg
}

// Has returns true if a service is registered for key in any environment.
func (c *Container) Has(key reflect.Type) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.registry.has(key)
}

// Get resolves the service registered for key in the current environment.
//
// Errors:
//   - [*ServiceNotRegisteredError] if no registration is active for key.
//   - [*ServiceCreationError] if a factory, a constructor, or Initialize failed,
//     or a constructor parameter could not be resolved.
//   - [*CircularDependencyError] if key is already being created by the calling goroutine.
//
// Called from [Container.WithScope], Scoped services are resolved in the current scope.
func (c *Container) Get(key reflect.Type) (any, error) {
	if key == nil {
		return nil, errors.New("di.Container.Get: key is nil")
	}

	st := c.stack()
	defer c.release(st)

	val, err := c.resolve(st, key, c.callerScope(st))
	if err != nil {
		return nil, errors.Wrapf(err, "di.Container.Get %s", key)
	}

	return val, nil
}

func (c *Container) resolve(st *creationStack, key reflect.Type, scopeID string) (any, error) {
	c.monitor.RecordResolution()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil, ErrContainerDisposed
	}

	reg := c.registry.find(key, c.environment)
	if reg == nil {
		env := c.environment
		c.mu.Unlock()
		return nil, &ServiceNotRegisteredError{Key: key, Environment: env}
	}

	// Instances are returned as-is
	if reg.hasInstance {
		c.mu.Unlock()
		return reg.instance, nil
	}

	var sc *scope
	switch {
	case reg.lifetime == Scoped && scopeID != "":
		sc = c.scopes[scopeID]
		if sc == nil {
			c.mu.Unlock()
			return nil, errors.Wrapf(ErrScopeNotFound, "scope %s", scopeID)
		}
		if val, ok := sc.instances[key]; ok {
			c.mu.Unlock()
			c.monitor.RecordCacheHit()
			return val, nil
		}
	case reg.lifetime.cacheable():
		if val, ok := c.cache.Get(key); ok {
			c.mu.Unlock()
			c.monitor.RecordCacheHit()
			return val, nil
		}
	}
	gen := c.generation
	c.mu.Unlock()

	if reg.lifetime.cacheable() {
		c.monitor.RecordCacheMiss()
	}

	err := st.push(key, scopeID)
	if err != nil {
		return nil, err
	}
	defer st.pop()

	start := time.Now()
	val, err := c.create(st, reg, scopeID)
	elapsed := time.Since(start)

	if err != nil {
		c.failed(key, err)
		return nil, err
	}
	c.monitor.RecordCreation(elapsed)

	val, dup := c.store(reg, sc, gen, val)
	if dup != nil {
		// Another goroutine created the service first
		_ = c.dispose(tracked{key: key, disposer: dup})
	}

	c.logger.Debug("service created",
		zap.Stringer("service", key),
		zap.Stringer("lifetime", reg.lifetime),
		zap.String("scope", scopeID),
		zap.Duration("duration", elapsed),
	)

	return val, nil
}

func (c *Container) create(st *creationStack, reg *registration, scopeID string) (val any, err error) {
	ctx, span := c.tracer.Start(st.parentContext(), "di.create", trace.WithAttributes(
		attribute.String("di.service", reg.key.String()),
		attribute.String("di.lifetime", reg.lifetime.String()),
		attribute.String("di.kind", reg.kind()),
		attribute.String("di.scope", scopeID),
	))
	st.top().ctx = ctx

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if reg.factory != nil {
		val, err = callFactory(reg)
	} else {
		val, err = c.construct(st, reg, scopeID)
	}
	if err != nil {
		return nil, err
	}

	err = callInitialize(val)
	if err != nil {
		return nil, &ServiceCreationError{
			Key:        reg.key,
			ParamIndex: -1,
			Cause:      errors.Wrap(err, "initialize"),
		}
	}

	return val, nil
}

func callFactory(reg *registration) (val any, err error) {
	defer func() {
		if err != nil {
			val = nil
			err = &ServiceCreationError{Key: reg.key, ParamIndex: -1, Cause: err}
		}
	}()
	defer recoverPanic(&err)

	val, err = reg.factory()
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, errors.New("factory returned nil")
	}
	if t := reflect.TypeOf(val); !t.AssignableTo(reg.key) {
		return nil, errors.Errorf("factory returned %s, not assignable to %s", t, reg.key)
	}

	return val, nil
}

func callInitialize(val any) (err error) {
	defer recoverPanic(&err)
	return initialize(val)
}

// recoverPanic turns a panic in a constructor, factory, or lifecycle hook into an error.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = errors.Errorf("panic: %v", r)
	}
}

// store saves a created service according to its lifetime.
// It returns the service to use, and a Disposer for val if it lost a race
// with another goroutine creating the same service.
func (c *Container) store(reg *registration, sc *scope, gen uint64, val any) (any, Disposer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.registry.has(reg.key) {
		c.status[reg.key] = StatusCreated
	}

	if reg.lifetime == Transient {
		return val, nil
	}

	d := reg.disposerFor(val)

	if sc != nil {
		if existing, ok := sc.instances[reg.key]; ok {
			return existing, d
		}
		sc.add(reg.key, val, d)
		return val, nil
	}

	// Skip the cache if the environment changed or the Container was cleared
	// while the service was being created. It is still disposed with the Container.
	if gen == c.generation {
		if existing, ok := c.cache.Get(reg.key); ok {
			return existing, d
		}
		c.cache.Put(reg.key, val)
	}

	if d != nil {
		c.tracked = append(c.tracked, tracked{key: reg.key, val: val, disposer: d})
	}
	return val, nil
}

func (c *Container) failed(key reflect.Type, err error) {
	c.mu.Lock()
	if c.registry.has(key) {
		c.status[key] = StatusFailed
	}
	c.mu.Unlock()

	// Failures of dependencies are logged where they happen
	var createErr *ServiceCreationError
	if errors.As(err, &createErr) && createErr.Key == key {
		c.logger.Error("service creation failed",
			zap.Stringer("service", key),
			zap.Error(err),
		)
	}
}

// SetEnvironment switches the active environment.
//
// Cached services are dropped so services are created again from the
// registrations of the new environment. Dropped services are not disposed
// until the Container is cleared or disposed.
// Setting the current environment again has no effect.
func (c *Container) SetEnvironment(env string) {
	env = normalizeEnvironment(env)

	c.mu.Lock()
	prev := c.environment
	if prev == env {
		c.mu.Unlock()
		return
	}

	c.environment = env
	c.cache.Clear()
	for _, key := range c.registry.keys {
		c.syncGraph(key)
	}
	c.generation++
	c.mu.Unlock()

	c.logger.Info("environment changed",
		zap.String("from", environmentName(prev)),
		zap.String("to", environmentName(env)),
	)
}

// Environment returns the name of the active environment.
func (c *Container) Environment() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return environmentName(c.environment)
}

// Status returns the last known state of the service registered for key.
//
// [StatusUnknown] is returned if key is not registered.
func (c *Container) Status(key reflect.Type) ServiceStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.registry.has(key) {
		return StatusUnknown
	}
	return c.status[key]
}

// OptimizeCache removes expired services from the cache, then the least
// accessed ones until the cache is within its maximum size.
//
// Removed services are not disposed.
func (c *Container) OptimizeCache() OptimizeResult {
	c.mu.Lock()
	res := c.cache.Optimize()
	c.mu.Unlock()

	c.logger.Debug("cache optimized",
		zap.Int("expired_removed", res.ExpiredRemoved),
		zap.Int("lru_removed", res.LRURemoved),
		zap.Int("final_size", res.FinalSize),
	)

	return res
}

// Clear disposes every open scope and every tracked service, then removes all
// registrations and cached services.
//
// Services are disposed in the reverse order they were created.
// Errors returned from disposing services are joined together; a failure does not
// stop the remaining services from being disposed.
//
// Calling Clear again does nothing until more services are registered.
func (c *Container) Clear() error {
	err := c.clear()
	if err != nil {
		return errors.Wrap(err, "di.Container.Clear")
	}

	return nil
}

// Dispose clears the Container and marks it disposed.
//
// After Dispose, Get, Register, and CreateScope return [ErrContainerDisposed].
// Calling Dispose again returns nil.
func (c *Container) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	c.mu.Unlock()

	err := c.clear()
	c.logger.Debug("container disposed", zap.Error(err))
	if err != nil {
		return errors.Wrap(err, "di.Container.Dispose")
	}

	return nil
}

func (c *Container) clear() error {
	c.mu.Lock()
	scopes := make([]*scope, 0, len(c.scopes))
	for _, sc := range c.scopes {
		scopes = append(scopes, sc)
	}
	slices.SortFunc(scopes, func(a, b *scope) int {
		return cmp.Compare(b.seq, a.seq)
	})

	var pending []tracked
	for _, sc := range scopes {
		pending = append(pending, sc.close()...)
	}

	// Dispose in LIFO order
	// This is important because of dependencies
	for i := len(c.tracked) - 1; i >= 0; i-- {
		pending = append(pending, c.tracked[i])
	}

	c.tracked = nil
	c.scopes = make(map[string]*scope)
	c.registry.clear()
	c.cache.Clear()
	c.graph.Clear()
	c.status = make(map[reflect.Type]ServiceStatus)
	c.generation++
	c.mu.Unlock()

	var errs errors.MultiError
	for _, t := range pending {
		errs = errs.Append(c.dispose(t))
	}

	return errs.Join()
}

// dispose calls the Disposer of a service, logging any failure.
func (c *Container) dispose(t tracked) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrapf(err, "dispose %s", t.key)
			c.logger.Warn("service dispose failed",
				zap.Stringer("service", t.key),
				zap.Error(err),
			)
		}
	}()
	defer recoverPanic(&err)

	return t.disposer.Dispose()
}
