package dihttp

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sectrean/dicore"
	"github.com/sectrean/dicore/dicontext"
	"github.com/sectrean/dicore/internal/errors"
)

// NewRequestScopeMiddleware creates middleware that creates a new scope for each request.
// The scope is disposed after the request has been processed.
//
// The Container and the scope ID are stored on the request context. Scoped services can
// be resolved using [dicontext.Get] or [dicontext.MustGet].
//
// Available options:
//   - [WithLogger]: Set the logger used by the default error handlers.
//   - [WithNewScopeErrorHandler]: Set the error handler for when there is an error creating a new scope.
//   - [WithScopeDisposeErrorHandler]: Set the error handler for when there is an error disposing the scope.
func NewRequestScopeMiddleware(
	c *di.Container,
	opts ...ScopeMiddlewareOption,
) (func(http.Handler) http.Handler, error) {
	if c == nil {
		return nil, errors.New("dihttp.NewRequestScopeMiddleware: container is nil")
	}

	cfg := &scopeMiddlewareConfig{
		c:      c,
		logger: zap.L(),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyScopeMiddleware(cfg))
	}
	if err := errs.Wrap("dihttp.NewRequestScopeMiddleware"); err != nil {
		return nil, err
	}

	if cfg.newScopeHandler == nil {
		cfg.newScopeHandler = defaultNewScopeErrorHandler(cfg.logger)
	}
	if cfg.disposeHandler == nil {
		cfg.disposeHandler = defaultScopeDisposeErrorHandler(cfg.logger)
	}

	return func(next http.Handler) http.Handler {
		return &scopeMiddleware{
			scopeMiddlewareConfig: cfg,
			next:                  next,
		}
	}, nil
}

// NewScopeErrorHandler is a function that writes an error response to the client.
// This is called by the scope middleware when there is an error creating the scope.
//
// The default handler logs the error and writes a 500 Internal Server Error response.
type NewScopeErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultNewScopeErrorHandler(logger *zap.Logger) NewScopeErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("error creating HTTP request scope",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ScopeDisposeErrorHandler is a function that handles errors when disposing the scope
// after the request has completed.
//
// The default handler logs the error.
type ScopeDisposeErrorHandler = func(r *http.Request, err error)

func defaultScopeDisposeErrorHandler(logger *zap.Logger) ScopeDisposeErrorHandler {
	return func(r *http.Request, err error) {
		logger.Error("error disposing HTTP request scope",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
}

type scopeMiddlewareConfig struct {
	c               *di.Container
	logger          *zap.Logger
	newScopeHandler NewScopeErrorHandler
	disposeHandler  ScopeDisposeErrorHandler
}

type scopeMiddleware struct {
	*scopeMiddlewareConfig
	next http.Handler
}

func (m *scopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scopeID, err := m.c.CreateScope()
	if err != nil {
		m.newScopeHandler(w, r, err)
		return
	}

	defer func() {
		err := m.c.DisposeScope(scopeID)
		if err != nil {
			m.disposeHandler(r, err)
		}
	}()

	ctx := dicontext.WithScope(r.Context(), m.c, scopeID)
	m.next.ServeHTTP(w, r.WithContext(ctx))
}
