// Package bearer is the HTTP boundary of the session token engine: it
// extracts raw tokens from "Authorization: Bearer" headers and provides
// middleware that authenticates requests through a session.Manager.
//
// The middleware preserves the manager's uniform failure surface. A missing
// header, a malformed token and a revoked session all produce the same 401
// response body.
//
//	mux.Handle("/api/", bearer.Middleware(manager)(apiHandler))
//
//	func apiHandler(w http.ResponseWriter, r *http.Request) {
//		sess, _ := bearer.SessionFromContext(r.Context())
//		// sess.OwnerID identifies the caller
//	}
package bearer
