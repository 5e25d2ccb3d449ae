package di

import (
	"github.com/sectrean/dicore/internal/errors"
)

// A Module registers a group of related services.
// It can be used to export a re-usable group of related services.
//
// Example:
//
//	var StorageModule di.Module = func(c *di.Container) error {
//		return errors.Join(
//			di.Register[*sql.DB](c, OpenDB),
//			di.Register[Store](c, NewStore),
//		)
//	}
type Module func(c *Container) error

// WithModule installs the modules when calling [NewContainer].
//
// Example:
//
//	c, err := di.NewContainer(
//		di.WithModule(StorageModule, HandlerModule),
//	)
func WithModule(modules ...Module) ContainerOption {
	return containerOption(func(co *containerOptions) error {
		co.modules = append(co.modules, modules...)
		return nil
	})
}

// Install registers the services of each module in order.
// Errors are joined together; a failing module does not stop the others.
func (c *Container) Install(modules ...Module) error {
	var errs errors.MultiError
	for _, m := range modules {
		if m == nil {
			continue
		}
		errs = errs.Append(m(c))
	}

	return errs.Wrap("di.Container.Install")
}
