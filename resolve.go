package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// Register registers a constructor function for the service type T.
//
// See [Container.Register].
func Register[T any](c *Container, constructor any, opts ...RegisterOption) error {
	return c.Register(reflect.TypeFor[T](), constructor, opts...)
}

// RegisterFactory registers a factory function for the service type T.
//
// See [Container.RegisterFactory].
func RegisterFactory[T any](c *Container, factory func() (T, error), opts ...RegisterOption) error {
	if factory == nil {
		return c.RegisterFactory(reflect.TypeFor[T](), nil, opts...)
	}

	return c.RegisterFactory(reflect.TypeFor[T](), func() (any, error) {
		val, err := factory()
		if err != nil {
			return nil, err
		}
		return val, nil
	}, opts...)
}

// RegisterInstance registers an existing instance for the service type T.
//
// See [Container.RegisterInstance].
func RegisterInstance[T any](c *Container, instance T, opts ...RegisterOption) error {
	return c.RegisterInstance(reflect.TypeFor[T](), instance, opts...)
}

// Get resolves a service of type T.
//
// See [Container.Get].
func Get[T any](r Resolver) (T, error) {
	var val T
	anyVal, err := r.Get(reflect.TypeFor[T]())
	if err != nil {
		return val, err
	}

	return convert[T](anyVal)
}

// MustGet resolves a service of type T.
//
// If the service cannot be resolved, this function will panic.
func MustGet[T any](r Resolver) T {
	val, err := Get[T](r)
	if err != nil {
		panic(err)
	}
	return val
}

// GetInScope resolves a service of type T in the scope with the given ID.
//
// See [Container.GetInScope].
func GetInScope[T any](c *Container, scopeID string) (T, error) {
	var val T
	anyVal, err := c.GetInScope(scopeID, reflect.TypeFor[T]())
	if err != nil {
		return val, err
	}

	return convert[T](anyVal)
}

func convert[T any](anyVal any) (T, error) {
	var val T
	if anyVal == nil {
		return val, nil
	}

	val, ok := anyVal.(T)
	if !ok {
		return val, errors.Errorf("service of type %T is not a %s", anyVal, reflect.TypeFor[T]())
	}
	return val, nil
}
