/*
Package dihttp provides HTTP middleware for creating [di.Container] scopes for each request,
and handlers exposing Container statistics.

Example:

	package main

	import (
		"net/http"

		"github.com/go-chi/chi/v5"

		"github.com/sectrean/dicore"
		"github.com/sectrean/dicore/dicontext"
		"github.com/sectrean/dicore/dihttp"
	)

	func main() {
		c, err := di.NewContainer()
		if err != nil {
			panic(err)
		}
		_ = di.Register[*Service](c, NewService)
		_ = di.Register[*RequestService](c, NewRequestService, di.Scoped)

		// Create a new scope middleware
		scopeMiddleware, err := dihttp.NewRequestScopeMiddleware(c)
		if err != nil {
			panic(err)
		}

		r := chi.NewRouter()
		r.Use(scopeMiddleware)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			svc := dicontext.MustGet[*RequestService](r.Context())

			svc.HandleRequest(w, r)
		})
		r.Handle("/debug/di", dihttp.StatsHandler(c))

		http.ListenAndServe(":8080", r)
	}
*/
package dihttp
