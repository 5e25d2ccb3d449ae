package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// RegisterOption is used to configure a service registration when calling
// [Container.Register], [Container.RegisterFactory], or [Container.RegisterInstance].
//
// Available options:
//   - [Lifetime] is used to specify how services are created when resolved.
//   - [InEnvironment] binds the registration to a named environment.
//   - [WithDefault] provides a default value for a constructor parameter.
//   - [WithDisposeFunc] specifies a function to be called when the service is disposed.
//   - [IgnoreDispose] specifies that the service should not be disposed by the Container.
type RegisterOption interface {
	applyRegistration(r *registration) error
}

type registerOption func(*registration) error

func (o registerOption) applyRegistration(r *registration) error {
	return o(r)
}

// InEnvironment binds a registration to the named environment.
//
// A key may have one registration per environment plus one untagged default.
// While the Container is in environment env, its registration takes precedence over the default.
// The name [DefaultEnvironment] is the same as not using this option.
//
// Example:
//
//	c.Register(di.KeyOf[Mailer](), NewSMTPMailer, di.InEnvironment("production"))
//	c.Register(di.KeyOf[Mailer](), NewLogMailer) // used everywhere else
func InEnvironment(env string) RegisterOption {
	return registerOption(func(r *registration) error {
		r.environment = normalizeEnvironment(env)
		return nil
	})
}

// WithDefault provides a default value for a constructor parameter of type Param.
//
// The default is used when no service is registered for Param.
// If Param is registered, the registered service is resolved instead.
//
// This option will return an error if the constructor does not have a parameter of type Param.
func WithDefault[Param any](value Param) RegisterOption {
	return defaultOption{
		t:   reflect.TypeFor[Param](),
		val: safeReflectValue(reflect.TypeFor[Param](), value),
	}
}

type defaultOption struct {
	t   reflect.Type
	val reflect.Value
}

func (o defaultOption) applyRegistration(r *registration) error {
	for _, dep := range r.deps {
		if dep == o.t {
			if r.defaults == nil {
				r.defaults = make(map[reflect.Type]reflect.Value)
			}
			r.defaults[o.t] = o.val
			return nil
		}
	}
	return errors.Errorf("with default %s: parameter not found", o.t)
}
