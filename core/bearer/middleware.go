package bearer

import (
	"context"
	"net/http"

	"github.com/dmitrymomot/tokenkit/core/session"
)

type sessionContextKey struct{}

type ownerContextKey struct{}

// SessionFromContext returns the session stored by the middleware.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(session.Session)
	return sess, ok
}

// OwnerFromContext returns the resolved owner stored by OwnerMiddleware.
func OwnerFromContext[Owner any](ctx context.Context) (Owner, bool) {
	owner, ok := ctx.Value(ownerContextKey{}).(Owner)
	return owner, ok
}

// Middleware authenticates the request's bearer token and stores the session
// in the request context. Every failure, from a missing header to a bad
// scheme to any token rejection, answers 401 with the manager's invalid-token
// message, so the response never hints at the cause.
func Middleware[Owner any](mgr *session.Manager[Owner]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := Extract(r)
			if err != nil {
				unauthorized(w, mgr)
				return
			}

			sess, err := mgr.Authenticate(r.Context(), raw)
			if err != nil {
				unauthorized(w, mgr)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerMiddleware is Middleware that additionally resolves the owning entity
// and stores it alongside the session. It requires the manager to be
// configured with an OwnerResolver.
func OwnerMiddleware[Owner any](mgr *session.Manager[Owner]) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := Extract(r)
			if err != nil {
				unauthorized(w, mgr)
				return
			}

			owner, sess, err := mgr.Owner(r.Context(), raw)
			if err != nil {
				unauthorized(w, mgr)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			ctx = context.WithValue(ctx, ownerContextKey{}, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized[Owner any](w http.ResponseWriter, mgr *session.Manager[Owner]) {
	http.Error(w, mgr.InvalidTokenMessage(), http.StatusUnauthorized)
}
