package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// safeReflectValue returns the reflect.Value of val, or the zero value of t when val is nil.
// reflect.ValueOf(nil) is invalid and cannot be passed to a function call.
func safeReflectValue(t reflect.Type, val any) reflect.Value {
	if val == nil {
		return reflect.Zero(t)
	}

	return reflect.ValueOf(val)
}

// isNil returns true for nil and for typed nil pointers, maps, slices, funcs, and channels.
func isNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// applyOptions calls f for each option and returns the errors of every option
// that failed, joined together. All options are applied even when one fails.
func applyOptions[O any](opts []O, f func(O) error) error {
	var errs errors.MultiError
	for _, o := range opts {
		errs = errs.Append(f(o))
	}

	return errs.Join()
}

// sameInstance returns true if a and b are the same service instance.
// Values of types that cannot be compared are never the same.
func sameInstance(a, b any) (same bool) {
	if a == nil || b == nil {
		return false
	}

	t := reflect.TypeOf(a)
	if t != reflect.TypeOf(b) || !t.Comparable() {
		return false
	}

	// Comparable structs panic when an interface field holds a map or slice
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
