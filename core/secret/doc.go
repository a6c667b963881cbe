// Package secret generates high-entropy bearer secrets and the one-way
// digests under which they are persisted.
//
// A generated secret is the concatenation of a random base62 seed and an
// 8-character hex CRC32 checksum of that seed. The checksum gives every
// issued secret a fixed, recognizable shape that automated secret-scanning
// tools can match on, while remaining fully derived from the random seed so
// it does not weaken entropy.
//
// Only the digest of a secret is ever stored. The default algorithm is
// SHA-256; BLAKE2b-256 is available through Hasher for deployments that
// standardize on it:
//
//	secret, hash, err := secret.Generate(secret.DefaultSize)
//	if err != nil {
//		// handle error
//	}
//	// persist hash, hand secret to the caller, then drop it
//
// Verification of a presented secret recomputes the digest and compares it
// with Verify, which runs in constant time regardless of where the two
// digests first differ:
//
//	if secret.Verify(storedHash, secret.Hash(presented)) {
//		// possession proven
//	}
//
// All functions are pure: size and algorithm are explicit parameters and
// there is no package-level mutable state.
package secret
