// Package middleware provides HTTP middleware for the sharegate server.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/remotefs"
	"github.com/marmos91/sharegate/pkg/session"
)

type contextKey string

const credentialsContextKey contextKey = "credentials"

// Sessions loads the browser session into the request context. A request
// always gets a session: a fresh one when the cookie is missing or stale.
// Handlers that change the session save it themselves.
func Sessions(mgr *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := mgr.Load(r)
			if err != nil {
				logger.WarnCtx(r.Context(), "Session store unavailable, continuing anonymously", logger.Err(err))
			}
			ctx := session.WithSession(r.Context(), s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BasicCredentials lets API clients pass share credentials per request with
// HTTP Basic auth. The user may be written DOMAIN\user. These credentials
// take precedence over the session and are never stored.
func BasicCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		creds := remotefs.Credentials{User: user, Password: pass}
		if domain, name, found := strings.Cut(user, `\`); found {
			creds.Domain, creds.User = domain, name
		}
		ctx := context.WithValue(r.Context(), credentialsContextKey, creds)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CredentialsFromContext returns the credentials for this request: Basic
// auth when present, else those stored in the session, else anonymous.
func CredentialsFromContext(ctx context.Context) remotefs.Credentials {
	if creds, ok := ctx.Value(credentialsContextKey).(remotefs.Credentials); ok {
		return creds
	}
	if s := session.FromContext(ctx); s != nil {
		return s.Credentials
	}
	return remotefs.Credentials{}
}
