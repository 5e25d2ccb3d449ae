package di

import "fmt"

// Lifetime specifies how services are created when resolved.
//
// Available lifetimes:
//   - [Singleton] specifies that a service is created once and subsequent requests return the same instance.
//   - [Transient] specifies that a service is created for each request.
//   - [Scoped] specifies that a service is created once per scope.
type Lifetime uint8

const (
	// Singleton specifies that a service is created once per container and environment.
	// Subsequent requests to resolve return the same instance.
	//
	// This is the default lifetime for services.
	Singleton Lifetime = iota

	// Transient specifies that a service is created for each request.
	// Transient instances are never cached or tracked for disposal.
	Transient

	// Scoped specifies that a service is created once per scope.
	// Resolved outside of a scope, a Scoped service behaves like a Singleton.
	Scoped
)

// WithLifetime is used to configure the lifetime of a service when registering it.
//
// Example:
//
//	err := c.Register(di.KeyOf[Service](), NewService, di.WithLifetime(di.Transient))
//	// Lifetime can also be used directly as an option
//	err = c.Register(di.KeyOf[Service](), NewService, di.Transient)
func WithLifetime(lifetime Lifetime) RegisterOption {
	return lifetime
}

func (l Lifetime) applyRegistration(r *registration) error {
	if l > Scoped {
		return fmt.Errorf("invalid lifetime %d", l)
	}
	r.lifetime = l
	return nil
}

var _ RegisterOption = Singleton

func (l Lifetime) String() string {
	switch l {
	case Singleton:
		return "Singleton"
	case Transient:
		return "Transient"
	case Scoped:
		return "Scoped"
	default:
		return fmt.Sprintf("Unknown Lifetime %d", l)
	}
}

// cacheable returns true if instances with this lifetime are stored after creation.
func (l Lifetime) cacheable() bool {
	return l == Singleton || l == Scoped
}

// ServiceStatus is the last known state of a registered service.
type ServiceStatus uint8

const (
	// StatusRegistered means the service has not been created since it was registered.
	StatusRegistered ServiceStatus = iota
	// StatusCreated means the last attempt to create the service succeeded.
	StatusCreated
	// StatusFailed means the last attempt to create the service failed.
	StatusFailed
	// StatusUnknown is reported for keys that are not registered.
	StatusUnknown
)

func (s ServiceStatus) String() string {
	switch s {
	case StatusRegistered:
		return "Registered"
	case StatusCreated:
		return "Created"
	case StatusFailed:
		return "Failed"
	case StatusUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Unknown ServiceStatus %d", s)
	}
}
