package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// DefaultEnvironment is the name of the untagged environment.
// Registrations without [InEnvironment] belong to it.
const DefaultEnvironment = "default"

// registration binds a service key to a constructor, a factory, or an instance.
type registration struct {
	key         reflect.Type
	environment string
	lifetime    Lifetime

	// Exactly one of ctor, factory, or instance is used.
	ctor        reflect.Value
	factory     func() (any, error)
	instance    any
	hasInstance bool

	deps            []reflect.Type
	defaults        map[reflect.Type]reflect.Value
	disposerFactory disposerFactory
}

func newConstructorRegistration(key reflect.Type, fn any) (*registration, error) {
	if fn == nil {
		return nil, errors.New("constructor is nil")
	}

	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, errors.Errorf("constructor must be a function, got %s", fnType)
	}

	// Get the return type
	var t reflect.Type
	if fnType.NumOut() == 1 {
		t = fnType.Out(0)
	} else if fnType.NumOut() == 2 && fnType.Out(1) == typeError {
		t = fnType.Out(0)
	} else {
		return nil, errors.New("function must return T or (T, error)")
	}

	if !t.AssignableTo(key) {
		return nil, errors.Errorf("type %s not assignable to %s", t, key)
	}

	// Get the dependencies
	var deps []reflect.Type
	if fnType.NumIn() > 0 {
		deps = make([]reflect.Type, fnType.NumIn())
		for i := range fnType.NumIn() {
			deps[i] = fnType.In(i)
		}
	}

	return &registration{
		key:             key,
		ctor:            reflect.ValueOf(fn),
		deps:            deps,
		disposerFactory: getDisposer,
	}, nil
}

func newFactoryRegistration(key reflect.Type, factory func() (any, error)) (*registration, error) {
	if factory == nil {
		return nil, errors.New("factory is nil")
	}

	return &registration{
		key:             key,
		factory:         factory,
		disposerFactory: getDisposer,
	}, nil
}

func newInstanceRegistration(key reflect.Type, instance any) (*registration, error) {
	if isNil(instance) {
		return nil, errors.New("instance is nil")
	}

	t := reflect.TypeOf(instance)
	if !t.AssignableTo(key) {
		return nil, errors.Errorf("type %s not assignable to %s", t, key)
	}

	return &registration{
		key:             key,
		instance:        instance,
		hasInstance:     true,
		disposerFactory: getDisposer,
	}, nil
}

func (r *registration) applyOptions(opts []RegisterOption) error {
	return applyOptions(opts, func(opt RegisterOption) error {
		return opt.applyRegistration(r)
	})
}

// serviceType returns the concrete type the registration produces, if known.
func (r *registration) serviceType() reflect.Type {
	switch {
	case r.hasInstance:
		return reflect.TypeOf(r.instance)
	case r.ctor.IsValid():
		return r.ctor.Type().Out(0)
	default:
		return r.key
	}
}

func (r *registration) kind() string {
	switch {
	case r.hasInstance:
		return "instance"
	case r.factory != nil:
		return "factory"
	default:
		return "constructor"
	}
}

// graphDeps returns the parameter types that take part in the dependency graph.
func (r *registration) graphDeps() []reflect.Type {
	if len(r.deps) == 0 {
		return nil
	}

	deps := make([]reflect.Type, 0, len(r.deps))
	for _, dep := range r.deps {
		if dep == typeResolver {
			continue
		}
		deps = append(deps, dep)
	}
	return deps
}

func (r *registration) disposerFor(val any) Disposer {
	if isNil(val) || r.disposerFactory == nil {
		return nil
	}
	return r.disposerFactory(val)
}

// registry holds every registration, by key and environment.
type registry struct {
	sets map[reflect.Type]*registrationSet
	keys []reflect.Type
}

type registrationSet struct {
	byEnv map[string]*registration
	envs  []string
}

func newRegistry() *registry {
	return &registry{
		sets: make(map[reflect.Type]*registrationSet),
	}
}

// add stores reg, replacing the registration for the same key and environment.
// It returns the replaced registration, if any.
func (r *registry) add(reg *registration) *registration {
	set, ok := r.sets[reg.key]
	if !ok {
		set = &registrationSet{byEnv: make(map[string]*registration)}
		r.sets[reg.key] = set
		r.keys = append(r.keys, reg.key)
	}

	prev, exists := set.byEnv[reg.environment]
	if !exists {
		set.envs = append(set.envs, reg.environment)
	}
	set.byEnv[reg.environment] = reg

	return prev
}

// find returns the active registration for key in env.
//
// Lookup order: the exact environment, then the untagged default, then the first
// remaining environment-tagged registration in registration order. The last step
// is a fallback only; which tagged registration it picks is not part of the contract.
func (r *registry) find(key reflect.Type, env string) *registration {
	set, ok := r.sets[key]
	if !ok {
		return nil
	}

	if reg, ok := set.byEnv[env]; ok {
		return reg
	}
	if reg, ok := set.byEnv[""]; ok {
		return reg
	}
	if len(set.envs) > 0 {
		return set.byEnv[set.envs[0]]
	}

	return nil
}

func (r *registry) has(key reflect.Type) bool {
	_, ok := r.sets[key]
	return ok
}

// environments returns the environments key is registered for, in registration order.
func (r *registry) environments(key reflect.Type) []string {
	set, ok := r.sets[key]
	if !ok {
		return nil
	}

	envs := make([]string, len(set.envs))
	for i, e := range set.envs {
		envs[i] = environmentName(e)
	}
	return envs
}

func (r *registry) clear() {
	r.sets = make(map[reflect.Type]*registrationSet)
	r.keys = nil
}

// normalizeEnvironment maps the default environment name to the untagged key.
func normalizeEnvironment(env string) string {
	if env == DefaultEnvironment {
		return ""
	}
	return env
}

func environmentName(env string) string {
	if env == "" {
		return DefaultEnvironment
	}
	return env
}
