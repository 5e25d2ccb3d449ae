package dihttp_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/sectrean/dicore"
	"github.com/sectrean/dicore/dicontext"
	"github.com/sectrean/dicore/dihttp"
	"github.com/sectrean/dicore/internal/errors"
	"github.com/sectrean/dicore/internal/testtypes"
	"github.com/sectrean/dicore/internal/testutils"
)

func Test_NewRequestScopeMiddleware(t *testing.T) {
	t.Run("nil container", func(t *testing.T) {
		mw, err := dihttp.NewRequestScopeMiddleware(nil)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: container is nil")
	})

	t.Run("nil options", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		mw, err := dihttp.NewRequestScopeMiddleware(c,
			dihttp.WithLogger(nil),
			dihttp.WithNewScopeErrorHandler(nil),
			dihttp.WithScopeDisposeErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: "+
			"WithLogger: logger is nil\n"+
			"WithNewScopeErrorHandler: h is nil\n"+
			"WithScopeDisposeErrorHandler: h is nil")
	})

	t.Run("multiple middleware calls", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		mw, err := dihttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		handlerA := mw(http.NotFoundHandler())
		handlerB := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(500)
		}))

		gotA := RunRequest(t, handlerA, "/")
		assert.Equal(t, http.StatusNotFound, gotA)

		gotB := RunRequest(t, handlerB, "/")
		assert.Equal(t, http.StatusInternalServerError, gotB)
	})
}

func Test_Middleware(t *testing.T) {
	t.Run("scoped service", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)
		require.NoError(t, di.Register[testtypes.InterfaceA](c, testtypes.NewInterfaceA))
		require.NoError(t, di.Register[testtypes.InterfaceB](c, testtypes.NewInterfaceB, di.Scoped))

		mw, err := dihttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		var scopeID string
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scopeID = dicontext.ScopeID(ctx)
			assert.Same(t, c, dicontext.Container(ctx))

			b, getErr := dicontext.Get[testtypes.InterfaceB](ctx)
			assert.NotNil(t, b)
			assert.NoError(t, getErr)

			w.WriteHeader(http.StatusOK)
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)

		// The scope is disposed after the request
		assert.NotEmpty(t, scopeID)
		assert.ErrorIs(t, c.DisposeScope(scopeID), di.ErrScopeNotFound)
	})

	t.Run("scoped service is disposed", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)
		require.NoError(t, di.Register[*testtypes.Closer](c, func() *testtypes.Closer {
			return &testtypes.Closer{}
		}, di.Scoped))

		mw, err := dihttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		var closer *testtypes.Closer
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			closer = dicontext.MustGet[*testtypes.Closer](r.Context())
			assert.False(t, closer.Closed)
			w.WriteHeader(http.StatusOK)
		})

		RunRequest(t, mw(handler), "/")
		assert.True(t, closer.Closed)
	})

	t.Run("concurrent requests", func(t *testing.T) {
		// Each request gets its own instance of the scoped service, and resolving it
		// again within the same request returns the same instance.
		const concurrency = 1000

		c, err := di.NewContainer()
		require.NoError(t, err)

		f := &testtypes.Factory{}
		require.NoError(t, di.Register[*testtypes.StructA](c, f.NewStructA, di.Scoped))

		mw, err := dihttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		tags := make(chan any, concurrency)
		var handler http.Handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a1, getErr := dicontext.Get[*testtypes.StructA](r.Context())
			assert.NoError(t, getErr)
			a2, getErr := dicontext.Get[*testtypes.StructA](r.Context())
			assert.NoError(t, getErr)

			assert.Same(t, a1, a2)
			tags <- a1.Tag
		})
		handler = mw(handler)

		testutils.RunParallel(concurrency, func(i int) {
			RunRequest(t, handler, fmt.Sprintf("/%d", i))
		})

		close(tags)

		expected := make([]any, concurrency)
		for i := range expected {
			expected[i] = i
		}
		assert.ElementsMatch(t, expected, testutils.CollectChannel(tags))
		assert.Equal(t, concurrency, f.Count())
	})

	t.Run("new scope error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)
		require.NoError(t, c.Dispose())

		called := false
		mw, err := dihttp.NewRequestScopeMiddleware(c,
			dihttp.WithNewScopeErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				assert.NotNil(t, w)
				assert.NotNil(t, r)
				assert.EqualError(t, err, "di.Container.CreateScope: container disposed")

				called = true
				w.WriteHeader(599)
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			assert.Fail(t, "handler should not get called")
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, 599, code)
		assert.True(t, called)
	})

	t.Run("new scope error default handler", func(t *testing.T) {
		logger, logs := testutils.ObservedLogger(zapcore.ErrorLevel)

		c, err := di.NewContainer()
		require.NoError(t, err)
		require.NoError(t, c.Dispose())

		mw, err := dihttp.NewRequestScopeMiddleware(c, dihttp.WithLogger(logger))
		require.NoError(t, err)

		code := RunRequest(t, mw(http.NotFoundHandler()), "/path")
		assert.Equal(t, http.StatusInternalServerError, code)

		entries := logs.FilterMessage("error creating HTTP request scope").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "/path", entries[0].ContextMap()["path"])
	})

	t.Run("dispose error", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)

		rec := &testtypes.Recorder{}
		require.NoError(t, di.Register[*testtypes.Lifecycle](c, func() *testtypes.Lifecycle {
			return &testtypes.Lifecycle{Name: "a", Recorder: rec, DisposeErr: errors.New("dispose error")}
		}, di.Scoped))

		called := false
		mw, err := dihttp.NewRequestScopeMiddleware(c,
			dihttp.WithScopeDisposeErrorHandler(func(r *http.Request, err error) {
				assert.NotNil(t, r)
				assert.EqualError(t, err, "di.Container.DisposeScope scope_1: dispose *testtypes.Lifecycle: dispose error")
				called = true
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, getErr := dicontext.Get[*testtypes.Lifecycle](r.Context())
			assert.NoError(t, getErr)
			w.WriteHeader(http.StatusOK)
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)
		assert.True(t, called)
		assert.Equal(t, []string{"init a", "dispose a"}, rec.Events())
	})

	t.Run("chi router", func(t *testing.T) {
		c, err := di.NewContainer()
		require.NoError(t, err)
		require.NoError(t, di.Register[*testtypes.StructA](c, testtypes.NewStructAPtr, di.Scoped))

		mw, err := dihttp.NewRequestScopeMiddleware(c)
		require.NoError(t, err)

		r := chi.NewRouter()
		r.Use(mw)
		r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
			a := dicontext.MustGet[*testtypes.StructA](r.Context())
			a.Tag = chi.URLParam(r, "id")
			w.WriteHeader(http.StatusAccepted)
		})

		code := RunRequest(t, r, "/items/42")
		assert.Equal(t, http.StatusAccepted, code)
	})
}

func RunRequest(t *testing.T, h http.Handler, path string) int {
	res := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	h.ServeHTTP(res, req)
	return res.Code
}
