package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// account
	router.Handler(http.MethodPost, "/v1/account", app.rateLimit(app.requireGuest(app.createAccountHandler)))
	router.Handler(http.MethodPost, "/v1/account/sessions", app.rateLimit(app.requireGuest(app.createSessionHandler)))
	router.HandlerFunc(http.MethodGet, "/v1/account", app.requireAuthenticatedUser(app.showCurrentUserHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/account/sessions", app.requireAuthenticatedUser(app.deleteSessionsHandler))

	// posts
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAuthenticatedUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.showPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:slug", app.requireAuthenticatedUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:slug", app.requireAuthenticatedUser(app.deletePostHandler))

	// files
	router.HandlerFunc(http.MethodGet, "/v1/files/:id/preview", app.previewFileHandler)

	return app.recoverPanic(app.enableCORS(app.logRequest(app.authenticate(router))))
}
