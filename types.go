package di

import (
	"reflect"
)

// These are commonly used types.
var (
	typeError    = reflect.TypeFor[error]()
	typeResolver = reflect.TypeFor[Resolver]()
)

// KeyOf returns the service key for type T.
//
// Example:
//
//	err := c.Register(di.KeyOf[Database](), NewPostgresDatabase)
func KeyOf[T any]() reflect.Type {
	return reflect.TypeFor[T]()
}
