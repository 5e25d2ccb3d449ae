package di

import (
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sectrean/dicore/internal/errors"
)

// ContainerOption is used to configure a new [Container] when calling [NewContainer].
type ContainerOption interface {
	applyContainer(*containerOptions) error
}

type containerOption func(*containerOptions) error

func (o containerOption) applyContainer(co *containerOptions) error {
	return o(co)
}

type containerOptions struct {
	cfg            Config
	environment    *string
	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	now            func() time.Time
	cache          ServiceCache
	sizeFunc       func(any) int64
	monitor        PerformanceMonitor
	modules        []Module
}

func newContainerOptions() *containerOptions {
	return &containerOptions{
		cfg:            DefaultConfig(),
		logger:         zap.NewNop(),
		tracerProvider: noop.NewTracerProvider(),
		now:            time.Now,
	}
}

// serviceCache returns the configured cache, or builds one from the Config.
//
// With the service cache disabled, Singletons are still kept for the life of
// the Container in a cache with no size limit and no expiry.
func (o *containerOptions) serviceCache() ServiceCache {
	if o.cache != nil {
		return o.cache
	}

	cfg := CacheConfig{
		Now:      o.now,
		SizeFunc: o.sizeFunc,
	}
	if o.cfg.EnableServiceCache {
		cfg.MaxSize = o.cfg.MaxCacheSize
		cfg.TTL = time.Duration(o.cfg.CacheTTLSeconds) * time.Second
	}

	return NewServiceCache(cfg)
}

func (o *containerOptions) performanceMonitor() PerformanceMonitor {
	switch {
	case o.monitor != nil:
		return o.monitor
	case o.cfg.EnableTracking:
		return NewPerformanceMonitor()
	default:
		return noopMonitor{}
	}
}

// WithConfig sets the [Config] of the Container.
//
// The Config is validated by [NewContainer]. [WithEnvironment] takes precedence
// over Config.Environment regardless of option order.
func WithConfig(cfg Config) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		co.cfg = cfg
		if co.environment != nil {
			co.cfg.Environment = *co.environment
		}
		return nil
	})
}

// WithEnvironment sets the initial environment of the Container.
func WithEnvironment(env string) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		co.environment = &env
		co.cfg.Environment = env
		return nil
	})
}

// WithLogger sets the logger used by the Container.
//
// Every entry is tagged with a container_id field. The default logger discards everything.
func WithLogger(logger *zap.Logger) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if logger == nil {
			return errors.New("with logger: logger is nil")
		}
		co.logger = logger
		return nil
	})
}

// WithTracerProvider sets the TracerProvider used to record a "di.create" span
// for every service the Container creates.
//
// Spans for dependencies are children of the span of the service that needs them.
func WithTracerProvider(tp trace.TracerProvider) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if tp == nil {
			return errors.New("with tracer provider: provider is nil")
		}
		co.tracerProvider = tp
		return nil
	})
}

// WithClock sets the function used to read the current time for cache expiry.
func WithClock(now func() time.Time) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if now == nil {
			return errors.New("with clock: now is nil")
		}
		co.now = now
		return nil
	})
}

// WithServiceCache replaces the default [ServiceCache].
//
// The cache settings of the Config and [WithSizeEstimator] are ignored.
func WithServiceCache(cache ServiceCache) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if cache == nil {
			return errors.New("with service cache: cache is nil")
		}
		co.cache = cache
		return nil
	})
}

// WithSizeEstimator sets the function used to estimate the memory used by a cached service.
func WithSizeEstimator(f func(val any) int64) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if f == nil {
			return errors.New("with size estimator: func is nil")
		}
		co.sizeFunc = f
		return nil
	})
}

// WithPerformanceMonitor replaces the default [PerformanceMonitor].
//
// The monitor is used even if Config.EnableTracking is false.
func WithPerformanceMonitor(m PerformanceMonitor) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		if m == nil {
			return errors.New("with performance monitor: monitor is nil")
		}
		co.monitor = m
		return nil
	})
}
