package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/crc32"

	"golang.org/x/crypto/blake2b"
)

const (
	// DefaultSize is the number of random characters in a generated secret,
	// excluding the checksum suffix.
	DefaultSize = 64

	// MinSize is the smallest accepted secret size. Anything shorter does not
	// carry enough entropy to act as a bearer credential.
	MinSize = 16

	// ChecksumLength is the length of the hex-encoded CRC32 suffix appended
	// to every generated secret.
	ChecksumLength = 8
)

// alphabet is the character set used for the random portion of a secret.
// Base62 keeps secrets printable and safe inside base64url token segments.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var (
	// ErrSizeTooSmall is returned when a requested secret size is below MinSize.
	ErrSizeTooSmall = errors.New("secret: size below minimum")

	// ErrRandomSource is returned when the system random source fails.
	ErrRandomSource = errors.New("secret: random source failure")
)

// Algorithm identifies the one-way hash used for persisted digests.
type Algorithm string

const (
	// SHA256 is the default digest algorithm.
	SHA256 Algorithm = "sha256"

	// Blake2b256 is an alternative 256-bit digest for deployments that
	// standardize on BLAKE2.
	Blake2b256 Algorithm = "blake2b-256"
)

// Hasher computes hex-encoded one-way digests with an explicit algorithm.
// The zero value hashes with SHA-256.
type Hasher struct {
	alg Algorithm
}

// NewHasher returns a Hasher for the given algorithm.
func NewHasher(alg Algorithm) (Hasher, error) {
	switch alg {
	case SHA256, Blake2b256:
		return Hasher{alg: alg}, nil
	default:
		return Hasher{}, fmt.Errorf("secret: unsupported digest algorithm %q", alg)
	}
}

// Hash returns the hex-encoded digest of the secret. This is the only
// representation of a secret that may ever be persisted.
func (h Hasher) Hash(secret string) string {
	switch h.alg {
	case Blake2b256:
		sum := blake2b.Sum256([]byte(secret))
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256([]byte(secret))
		return hex.EncodeToString(sum[:])
	}
}

// Algorithm returns the digest algorithm this hasher applies.
func (h Hasher) Algorithm() Algorithm {
	if h.alg == "" {
		return SHA256
	}
	return h.alg
}

// Hash returns the hex-encoded SHA-256 digest of the secret.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Generate draws size random characters and appends a CRC32 checksum of the
// random seed, hex-encoded. It returns the full secret together with its
// SHA-256 digest so callers never need to hold the plain secret longer than
// a single call.
//
// The checksum is derived from the seed, not independent of it, so it adds a
// recognizable fixed format for secret-scanning tooling without reducing
// entropy.
func Generate(size int) (secret, hash string, err error) {
	return GenerateWithHasher(size, Hasher{alg: SHA256})
}

// GenerateWithHasher is Generate with an explicit digest algorithm.
func GenerateWithHasher(size int, h Hasher) (secret, hash string, err error) {
	if size < MinSize {
		return "", "", ErrSizeTooSmall
	}

	seed, err := randomString(size)
	if err != nil {
		return "", "", errors.Join(ErrRandomSource, err)
	}

	sum := crc32.ChecksumIEEE([]byte(seed))
	secret = seed + fmt.Sprintf("%08x", sum)
	return secret, h.Hash(secret), nil
}

// randomString selects characters from the base62 alphabet using rejection
// sampling, so the modulo step never biases the distribution.
func randomString(size int) (string, error) {
	// 248 is the largest multiple of len(alphabet) below 256.
	const limit = byte(248)

	out := make([]byte, 0, size)
	buf := make([]byte, size*2)
	for len(out) < size {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == size {
				break
			}
		}
	}
	return string(out), nil
}
