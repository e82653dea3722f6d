package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/lumina/internal/userservice"
)

type contextKey string

const sessionContextKey = contextKey("session")

func (app *application) contextSetSession(r *http.Request, session *userservice.Session) *http.Request {
	ctx := context.WithValue(r.Context(), sessionContextKey, session)
	return r.WithContext(ctx)
}

// contextGetSession returns the request's session, or AnonymousSession when
// authenticate did not run.
func (app *application) contextGetSession(r *http.Request) *userservice.Session {
	session, ok := r.Context().Value(sessionContextKey).(*userservice.Session)
	if !ok {
		return userservice.AnonymousSession
	}
	return session
}
