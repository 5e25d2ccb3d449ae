package dihttp

import (
	"go.uber.org/zap"

	"github.com/sectrean/dicore/internal/errors"
)

// ScopeMiddlewareOption is an option used to configure the scope middleware when calling [NewRequestScopeMiddleware].
type ScopeMiddlewareOption interface {
	applyScopeMiddleware(*scopeMiddlewareConfig) error
}

type scopeMiddlewareOption func(*scopeMiddlewareConfig) error

func (o scopeMiddlewareOption) applyScopeMiddleware(m *scopeMiddlewareConfig) error {
	return o(m)
}

// WithLogger sets the logger used by the default error handlers.
// The default is the global logger returned by [zap.L].
func WithLogger(logger *zap.Logger) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddlewareConfig) error {
		if logger == nil {
			return errors.New("WithLogger: logger is nil")
		}
		m.logger = logger
		return nil
	})
}

// WithNewScopeErrorHandler sets the error handler for when there is an error creating a new scope.
func WithNewScopeErrorHandler(h NewScopeErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddlewareConfig) error {
		if h == nil {
			return errors.New("WithNewScopeErrorHandler: h is nil")
		}
		m.newScopeHandler = h
		return nil
	})
}

// WithScopeDisposeErrorHandler sets the error handler for when there is an error disposing the scope.
func WithScopeDisposeErrorHandler(h ScopeDisposeErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddlewareConfig) error {
		if h == nil {
			return errors.New("WithScopeDisposeErrorHandler: h is nil")
		}
		m.disposeHandler = h
		return nil
	})
}
