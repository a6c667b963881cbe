// Package token encodes session identifiers and secrets into opaque public
// bearer strings and decodes them back.
//
// # Wire format
//
// A token is `{prefix}{base64url(id)}.{base64url(secret)}` with both
// segments unpadded URL-safe base64. The prefix is configurable (for
// example "oat_" or "ses_") and lets secret-scanning tools recognize
// issued credentials.
//
// # Decoding never fails loudly
//
// Decode returns ok=false for every malformed input instead of an error:
// missing prefix, empty remainder, missing separator, or invalid base64 in
// either segment. This keeps the caller's failure surface uniform, so an
// attacker cannot distinguish a malformed token from an unknown or tampered
// one by the shape of the response.
//
//	decoded, ok := token.Decode(raw, "oat_")
//	if !ok {
//		// treat identically to any other invalid token
//	}
//
// Identifier validation is a caller-supplied policy: stores with numeric
// primary keys pass token.NumericID to DecodeWithPolicy, everything else
// uses the default token.AnyID.
package token
