package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// Initializer is implemented by services that need to run setup after construction.
//
// Initialize is called once, right after the service is created and before it is
// returned for the first time. An error aborts the resolution with a [*ServiceCreationError].
// Instances passed to [Container.RegisterInstance] are initialized during registration.
type Initializer interface {
	Initialize() error
}

// Disposer is implemented by services that hold resources.
//
// Dispose is called when the owning scope is disposed, or when the [Container] is cleared
// or disposed. Services are disposed in the reverse order they were initialized.
//
// Any of these method signatures are supported:
//
//	Dispose() error
//	Dispose()
//	Close() error
//	Close()
//
// See related options:
//   - [IgnoreDispose]
//   - [WithDisposeFunc]
type Disposer interface {
	Dispose() error
}

// IgnoreDispose is used when the Container should not dispose a service that implements
// [Disposer], or another supported signature.
//
// This is useful when the lifecycle of a service is managed outside of the Container.
func IgnoreDispose() RegisterOption {
	return registerOption(func(r *registration) error {
		r.disposerFactory = nil
		return nil
	})
}

type disposerFactory func(val any) Disposer

// WithDisposeFunc sets a custom function to call for a service when it is disposed.
//
// This is useful if a service has a method called Shutdown or Stop that should be used
// to release it.
//
// Example:
//
//	di.WithDisposeFunc(func(s *http.Server) error {
//		return s.Shutdown(context.Background())
//	})
//
// This option will return an error if the service type is not assignable to T.
func WithDisposeFunc[T any](f func(T) error) RegisterOption {
	return disposeFuncOption[T]{f}
}

type disposeFuncOption[T any] struct {
	f func(T) error
}

func (o disposeFuncOption[T]) applyRegistration(r *registration) error {
	disposerType := reflect.TypeFor[T]()
	if !r.serviceType().AssignableTo(disposerType) {
		return errors.Errorf("with dispose func: service type %s is not assignable to %s",
			r.serviceType(), disposerType)
	}

	r.disposerFactory = func(val any) Disposer {
		return disposeFunc(func() error {
			return o.f(val.(T))
		})
	}
	return nil
}

// getDisposer returns the Disposer for a value that implements it,
// or any of the compatible signatures.
func getDisposer(val any) Disposer {
	switch d := val.(type) {
	case Disposer:
		return d
	case disposerNoError:
		return disposerNoErrorWrapper{d}
	case closerWithError:
		return closerWithErrorWrapper{d}
	case closerNoError:
		return closerNoErrorWrapper{d}

	default:
		return nil
	}
}

type disposerNoError interface {
	Dispose()
}

type closerWithError interface {
	Close() error
}

type closerNoError interface {
	Close()
}

type disposerNoErrorWrapper struct {
	d disposerNoError
}

func (w disposerNoErrorWrapper) Dispose() error {
	w.d.Dispose()
	return nil
}

type closerWithErrorWrapper struct {
	c closerWithError
}

func (w closerWithErrorWrapper) Dispose() error {
	return w.c.Close()
}

type closerNoErrorWrapper struct {
	c closerNoError
}

func (w closerNoErrorWrapper) Dispose() error {
	w.c.Close()
	return nil
}

type disposeFunc func() error

func (f disposeFunc) Dispose() error {
	return f()
}

// tracked is a created instance the Container is responsible for disposing.
type tracked struct {
	key      reflect.Type
	val      any
	disposer Disposer
}

// initialize runs the Initialize hook if val has one.
func initialize(val any) error {
	if i, ok := val.(Initializer); ok {
		return i.Initialize()
	}
	return nil
}
