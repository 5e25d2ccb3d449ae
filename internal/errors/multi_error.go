package errors

import (
	stderrors "errors"
)

// MultiError collects the errors of steps that all run even when some fail,
// such as disposing every service of a scope.
type MultiError []error

// Append adds the non-nil errors to the collection.
func (e MultiError) Append(errs ...error) MultiError {
	for _, err := range errs {
		if err != nil {
			e = append(e, err)
		}
	}
	return e
}

// Join combines all errors into a single error.
// A single error is returned as-is.
func (e MultiError) Join() error {
	switch len(e) {
	case 0:
		return nil
	case 1:
		return e[0]
	default:
		return stderrors.Join(e...)
	}
}

// Wrap joins errors and then wraps the joined error with a message.
//
// Returns nil if there are no errors.
func (e MultiError) Wrap(msg string) error {
	return Wrap(e.Join(), msg)
}

// Wrapf joins errors and then wraps the joined error with a formatted message.
//
// Returns nil if there are no errors.
func (e MultiError) Wrapf(msg string, args ...any) error {
	return Wrapf(e.Join(), msg, args...)
}
