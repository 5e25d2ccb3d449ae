// Package dicontext carries a [di.Container] and a scope ID on a [context.Context].
package dicontext

import (
	"context"
	"reflect"

	"github.com/sectrean/dicore"
	"github.com/sectrean/dicore/internal/errors"
)

type scopeContextKey struct{}

type scopeValue struct {
	c       *di.Container
	scopeID string
}

// WithScope returns a new [context.Context] that carries the [di.Container] and the ID
// of a scope created with [di.Container.CreateScope]. The scope ID may be empty.
func WithScope(ctx context.Context, c *di.Container, scopeID string) context.Context {
	return context.WithValue(ctx, scopeContextKey{}, scopeValue{c: c, scopeID: scopeID})
}

// Container returns the [di.Container] stored on the [context.Context], if present.
func Container(ctx context.Context) *di.Container {
	if v, ok := ctx.Value(scopeContextKey{}).(scopeValue); ok {
		return v.c
	}
	return nil
}

// ScopeID returns the scope ID stored on the [context.Context], if present.
func ScopeID(ctx context.Context) string {
	if v, ok := ctx.Value(scopeContextKey{}).(scopeValue); ok {
		return v.scopeID
	}
	return ""
}

// Get resolves a service of type Service from the [di.Container] stored on the
// [context.Context], in the stored scope if there is one.
func Get[Service any](ctx context.Context) (Service, error) {
	var t = reflect.TypeFor[Service]()
	var val Service

	v, ok := ctx.Value(scopeContextKey{}).(scopeValue)
	if !ok || v.c == nil {
		return val, errors.Errorf("get %s from context: container not found on context", t)
	}

	var err error
	if v.scopeID != "" {
		val, err = di.GetInScope[Service](v.c, v.scopeID)
	} else {
		val, err = di.Get[Service](v.c)
	}

	return val, errors.Wrap(err, "get from context")
}

// MustGet resolves a service of type Service from the [di.Container] stored on the
// [context.Context].
//
// If the service cannot be resolved, this function will panic.
func MustGet[Service any](ctx context.Context) Service {
	val, err := Get[Service](ctx)
	if err != nil {
		panic(err)
	}
	return val
}
