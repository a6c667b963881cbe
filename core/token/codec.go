package token

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// Decoded holds the two components recovered from an opaque token. Both
// values are ephemeral: they exist in memory only for the duration of the
// call that decoded them and must never be persisted.
type Decoded struct {
	// ID is the decoded session identifier, as a string. Callers that use
	// numeric primary keys validate it with an IDPolicy before conversion.
	ID string

	// Secret is the raw bearer secret recovered from the token.
	Secret string
}

// IDPolicy validates a decoded identifier before it is accepted. The policy
// belongs to the caller: stores with numeric primary keys use NumericID,
// everything else typically uses AnyID.
type IDPolicy func(id string) bool

var numericID = regexp.MustCompile(`^\d+$`)

// NumericID accepts identifiers consisting solely of ASCII digits.
func NumericID(id string) bool {
	return numericID.MatchString(id)
}

// AnyID accepts every non-empty identifier as an opaque string.
func AnyID(id string) bool {
	return id != ""
}

// Encode builds the public opaque token for a session identifier and secret:
//
//	{prefix}{base64url(id)}.{base64url(secret)}
//
// Both segments are unpadded URL-safe base64, so the result always matches
// ^{prefix}[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$ and survives URLs, headers and
// cookies untouched.
func Encode(id, secret, prefix string) string {
	var b strings.Builder
	b.Grow(len(prefix) + base64.RawURLEncoding.EncodedLen(len(id)) + 1 + base64.RawURLEncoding.EncodedLen(len(secret)))
	b.WriteString(prefix)
	b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(id)))
	b.WriteByte('.')
	b.WriteString(base64.RawURLEncoding.EncodeToString([]byte(secret)))
	return b.String()
}

// Decode recovers the identifier and secret from an opaque token. It never
// panics and never returns an error: every malformed input reports ok=false,
// so all downstream authentication failures funnel into one uniform path.
//
// Decoding fails when the token does not start with prefix, is empty after
// stripping it, has no '.' separator, or either segment is not valid
// unpadded base64url.
func Decode(raw, prefix string) (Decoded, bool) {
	return DecodeWithPolicy(raw, prefix, AnyID)
}

// DecodeWithPolicy is Decode with an explicit identifier policy applied to
// the decoded id before it is accepted.
func DecodeWithPolicy(raw, prefix string, policy IDPolicy) (Decoded, bool) {
	if !strings.HasPrefix(raw, prefix) {
		return Decoded{}, false
	}

	stripped := raw[len(prefix):]
	if stripped == "" {
		return Decoded{}, false
	}

	// Only the first separator splits id from secret; the remainder is
	// rejoined so inputs with extra dots fail base64 decoding instead of
	// silently truncating the secret.
	parts := strings.Split(stripped, ".")
	if len(parts) < 2 {
		return Decoded{}, false
	}
	idPart := parts[0]
	secretPart := strings.Join(parts[1:], ".")

	id, err := base64.RawURLEncoding.DecodeString(idPart)
	if err != nil {
		return Decoded{}, false
	}

	sec, err := base64.RawURLEncoding.DecodeString(secretPart)
	if err != nil {
		return Decoded{}, false
	}

	decoded := Decoded{ID: string(id), Secret: string(sec)}
	if policy != nil && !policy(decoded.ID) {
		return Decoded{}, false
	}

	return decoded, true
}
