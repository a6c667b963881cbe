package bearer

import (
	"errors"
	"net/http"
	"strings"
)

const headerName = "Authorization"

var (
	// ErrNoToken is returned when the request carries no bearer token.
	ErrNoToken = errors.New("bearer: no token")

	// ErrInvalidScheme is returned when the Authorization header does not
	// use the Bearer scheme.
	ErrInvalidScheme = errors.New("bearer: invalid authorization scheme")
)

// Extract returns the raw token from the request's
// "Authorization: Bearer <token>" header. It does not validate the token in
// any way; that is the session manager's job.
func Extract(r *http.Request) (string, error) {
	header := r.Header.Get(headerName)
	if header == "" {
		return "", ErrNoToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", ErrInvalidScheme
	}

	raw := strings.TrimSpace(parts[1])
	if raw == "" {
		return "", ErrNoToken
	}

	return raw, nil
}
