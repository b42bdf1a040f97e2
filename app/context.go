package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/quillpost/internal/backend"
)

type contextKey string

const sessionContextKey = contextKey("session")

// requestSession is the authenticated caller. Anonymous requests carry none.
type requestSession struct {
	user   *backend.User
	secret string
}

func (app *application) createSessionContext(r *http.Request, s *requestSession) *http.Request {
	ctx := context.WithValue(r.Context(), sessionContextKey, s)
	return r.WithContext(ctx)
}

func (app *application) getSessionContext(r *http.Request) *requestSession {
	s, ok := r.Context().Value(sessionContextKey).(*requestSession)
	if !ok {
		return nil
	}
	return s
}

func (app *application) getUserContext(r *http.Request) *backend.User {
	if s := app.getSessionContext(r); s != nil {
		return s.user
	}
	return nil
}
