package di

import (
	"reflect"

	"github.com/sectrean/dicore/internal/errors"
)

// construct calls the constructor of reg with its parameters resolved from the Container.
func (c *Container) construct(st *creationStack, reg *registration, scopeID string) (any, error) {
	in, variadic, err := c.resolveParams(st, reg.ctor.Type(), reg.defaults, scopeID)
	if err != nil {
		if pErr, ok := err.(*paramError); ok {
			return nil, &ServiceCreationError{
				Key:        reg.key,
				ParamIndex: pErr.index,
				ParamType:  pErr.typ,
				Cause:      pErr.err,
			}
		}
		return nil, err
	}

	out, err := call(reg.ctor, in, variadic)
	if err != nil {
		return nil, &ServiceCreationError{Key: reg.key, ParamIndex: -1, Cause: err}
	}

	if len(out) == 2 {
		if err, _ := out[1].Interface().(error); err != nil {
			return nil, &ServiceCreationError{Key: reg.key, ParamIndex: -1, Cause: err}
		}
	}

	return out[0].Interface(), nil
}

// paramError is returned by resolveParams for a parameter that is not registered
// and has no default.
type paramError struct {
	index int
	typ   reflect.Type
	err   error
}

func (e *paramError) Error() string {
	return e.err.Error()
}

func (e *paramError) Unwrap() error {
	return e.err
}

// resolveParams resolves the parameters of a function.
//
// A parameter of type [Resolver] gets the Container. A parameter that is not registered
// uses its default, if one was given. An unregistered variadic parameter is left out,
// in which case variadic is false and the function must be called with [reflect.Value.Call].
func (c *Container) resolveParams(
	st *creationStack,
	fnType reflect.Type,
	defaults map[reflect.Type]reflect.Value,
	scopeID string,
) (in []reflect.Value, variadic bool, err error) {
	n := fnType.NumIn()
	in = make([]reflect.Value, 0, n)
	variadic = fnType.IsVariadic()

	for i := range n {
		dep := fnType.In(i)

		if dep == typeResolver {
			in = append(in, reflect.ValueOf(c))
			continue
		}

		if !c.Has(dep) {
			if def, ok := defaults[dep]; ok {
				in = append(in, def)
				continue
			}
			if variadic && i == n-1 {
				// Leave out the variadic parameter
				variadic = false
				continue
			}

			return nil, false, &paramError{
				index: i,
				typ:   dep,
				err:   &ServiceNotRegisteredError{Key: dep},
			}
		}

		// Recursive call
		val, depErr := c.resolve(st, dep, scopeID)
		if depErr != nil {
			// Stop at the first error
			return nil, false, errors.Wrapf(depErr, "dependency %s", dep)
		}
		in = append(in, safeReflectValue(dep, val))
	}

	return in, variadic, nil
}

func call(fn reflect.Value, in []reflect.Value, variadic bool) (out []reflect.Value, err error) {
	defer recoverPanic(&err)

	if variadic {
		return fn.CallSlice(in), nil
	}
	return fn.Call(in), nil
}

// Invoke calls the given function with parameters resolved from the [Container].
//
// The function may take any number of parameters which will be resolved the same way
// as constructor parameters, and may return any number of results.
// An [error] return parameter will be passed along and any other return parameters are ignored.
//
// Called from [Container.WithScope], Scoped services are resolved in the current scope.
func Invoke(c *Container, fn any) error {
	if fn == nil {
		return errors.New("di.Invoke: fn is nil")
	}

	fnType := reflect.TypeOf(fn)
	fnVal := reflect.ValueOf(fn)

	// Make sure fn is a function
	if fnType.Kind() != reflect.Func {
		return errors.Errorf("di.Invoke %T: fn must be a function", fn)
	}

	st := c.stack()
	defer c.release(st)

	// Resolve deps from the Container
	in, variadic, err := c.resolveParams(st, fnType, nil, c.callerScope(st))
	if err != nil {
		if pErr, ok := err.(*paramError); ok {
			err = errors.Wrapf(pErr.err, "parameter %d of type %s", pErr.index, pErr.typ)
		}
		return errors.Wrapf(err, "di.Invoke %T", fn)
	}

	// Invoke the function
	out, err := call(fnVal, in, variadic)
	if err != nil {
		return errors.Wrapf(err, "di.Invoke %T", fn)
	}

	// Return the first error return value, if any.
	// Don't wrap the error, return it as-is.
	for i := range fnType.NumOut() {
		if fnType.Out(i) == typeError {
			err, _ := out[i].Interface().(error)
			return err
		}
	}

	return nil
}
