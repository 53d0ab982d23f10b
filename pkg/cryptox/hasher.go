package cryptox

import (
	"errors"
	"fmt"
	"strings"
)

// Supported password hashing algorithms.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

var (
	ErrEmptyPassword     = errors.New("cryptox: password must not be empty")
	ErrPasswordTooLong   = errors.New("cryptox: password exceeds algorithm limit")
	ErrUnsupportedHasher = errors.New("cryptox: unsupported hash algorithm")
	ErrPasswordMismatch  = errors.New("password does not match")
	errMalformedDigest   = errors.New("invalid hash format")
)

// Hasher turns plaintext secrets into salted one-way digests and checks
// plaintext secrets against digests it (or a sibling algorithm) produced.
//
// Verify never reports an error: a malformed digest is a non-match.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool

	// NeedsRehash reports whether digest was produced with a different
	// algorithm or weaker cost parameters than this hasher uses.
	NeedsRehash(digest string) bool
}

// HasherConfig selects and tunes the algorithm used for new digests.
type HasherConfig struct {
	Algorithm  string // argon2id (default) or bcrypt
	Argon2id   Argon2idParams
	BcryptCost int
	Pepper     string // appended to argon2id input only
}

// NewHasher builds a Hasher that produces digests with cfg.Algorithm and
// verifies digests of every supported algorithm, so switching algorithms
// does not lock out existing accounts.
func NewHasher(cfg HasherConfig) (Hasher, error) {
	params := cfg.Argon2id
	if params == (Argon2idParams{}) {
		params = DefaultArgon2idParams
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if err := validateBcryptCost(cost); err != nil {
		return nil, err
	}

	set := &hasherSet{
		argon2id: &Argon2idHasher{Params: params, Pepper: cfg.Pepper},
		bcrypt:   &BcryptHasher{Cost: cost},
	}

	switch strings.ToLower(cfg.Algorithm) {
	case "", AlgorithmArgon2id:
		set.algorithm = AlgorithmArgon2id
		set.primary = set.argon2id
	case AlgorithmBcrypt:
		set.algorithm = AlgorithmBcrypt
		set.primary = set.bcrypt
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHasher, cfg.Algorithm)
	}

	return set, nil
}

// DigestAlgorithm identifies the algorithm that produced digest, or returns
// an empty string if the digest is not recognised.
func DigestAlgorithm(digest string) string {
	switch {
	case strings.HasPrefix(digest, "$argon2id$"):
		return AlgorithmArgon2id
	case strings.HasPrefix(digest, "$2a$"),
		strings.HasPrefix(digest, "$2b$"),
		strings.HasPrefix(digest, "$2y$"):
		return AlgorithmBcrypt
	default:
		return ""
	}
}

type hasherSet struct {
	algorithm string
	primary   Hasher
	argon2id  *Argon2idHasher
	bcrypt    *BcryptHasher
}

func (s *hasherSet) Hash(plaintext string) (string, error) {
	return s.primary.Hash(plaintext)
}

func (s *hasherSet) Verify(plaintext, digest string) bool {
	switch DigestAlgorithm(digest) {
	case AlgorithmArgon2id:
		return s.argon2id.Verify(plaintext, digest)
	case AlgorithmBcrypt:
		return s.bcrypt.Verify(plaintext, digest)
	default:
		return false
	}
}

func (s *hasherSet) NeedsRehash(digest string) bool {
	if DigestAlgorithm(digest) != s.algorithm {
		return true
	}
	return s.primary.NeedsRehash(digest)
}
