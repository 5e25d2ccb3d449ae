package di

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sectrean/dicore/internal/errors"
)

var (
	// ErrServiceNotRegistered matches any [*ServiceNotRegisteredError] with [errors.Is].
	ErrServiceNotRegistered = errors.New("service not registered")

	// ErrServiceCreation matches any [*ServiceCreationError] with [errors.Is].
	ErrServiceCreation = errors.New("service creation failed")

	// ErrCircularDependency matches any [*CircularDependencyError] with [errors.Is].
	ErrCircularDependency = errors.New("circular dependency detected")

	// ErrContainerDisposed is returned when using a [Container] after [Container.Dispose].
	ErrContainerDisposed = errors.New("container disposed")

	// ErrScopeNotFound is returned for a scope ID that was never created or was already disposed.
	ErrScopeNotFound = errors.New("scope not found")
)

// ServiceNotRegisteredError is returned when no registration is active for a key
// in the current environment.
type ServiceNotRegisteredError struct {
	Key         reflect.Type
	Environment string
}

func (e *ServiceNotRegisteredError) Error() string {
	if e.Environment == "" {
		return fmt.Sprintf("service %s not registered", typeName(e.Key))
	}
	return fmt.Sprintf("service %s not registered for environment %q", typeName(e.Key), e.Environment)
}

// Is makes [ErrServiceNotRegistered] match.
func (e *ServiceNotRegisteredError) Is(target error) bool {
	return target == ErrServiceNotRegistered
}

// ServiceCreationError wraps a failure while creating a service:
// an error from its factory or constructor, a constructor parameter that could not be
// resolved, or an error from [Initializer.Initialize].
type ServiceCreationError struct {
	Key reflect.Type

	// ParamIndex and ParamType are set when a constructor parameter could not be resolved.
	// ParamIndex is -1 otherwise.
	ParamIndex int
	ParamType  reflect.Type

	Cause error
}

func (e *ServiceCreationError) Error() string {
	var sb strings.Builder
	sb.WriteString("create service ")
	sb.WriteString(typeName(e.Key))

	if e.ParamType != nil {
		fmt.Fprintf(&sb, ": parameter %d of type %s", e.ParamIndex, e.ParamType)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the cause.
func (e *ServiceCreationError) Unwrap() error {
	return e.Cause
}

// Is makes [ErrServiceCreation] match.
func (e *ServiceCreationError) Is(target error) bool {
	return target == ErrServiceCreation
}

// CircularDependencyError is returned when a service is requested while it is already
// being created further up the same resolution chain.
type CircularDependencyError struct {
	// Cycle starts and ends with the service that was requested twice, e.g. [A B A].
	Cycle []reflect.Type
}

func (e *CircularDependencyError) Error() string {
	names := make([]string, len(e.Cycle))
	for i, t := range e.Cycle {
		names[i] = typeName(t)
	}

	return fmt.Sprintf("circular dependency detected: %s (length %d)", strings.Join(names, " -> "), e.Len())
}

// Len returns the number of distinct services in the cycle.
func (e *CircularDependencyError) Len() int {
	if len(e.Cycle) == 0 {
		return 0
	}
	return len(e.Cycle) - 1
}

// Is makes [ErrCircularDependency] match.
func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
