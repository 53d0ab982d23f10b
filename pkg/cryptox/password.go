package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams tunes the cost of an argon2id digest.
type Argon2idParams struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams follows the OWASP minimum recommendation
// (19 MiB, 2 iterations, 1 lane).
var DefaultArgon2idParams = Argon2idParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Upper bounds accepted for configured parameters and for parameters
// decoded from a stored digest.
const (
	MaxArgon2idMemoryKiB  = 1 << 20 // 1 GiB
	MaxArgon2idIterations = 64
)

func (p Argon2idParams) validate() error {
	switch {
	case p.Memory == 0 || p.Memory < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: argon2id memory too low (%d KiB)", ErrUnsupportedHasher, p.Memory)
	case p.Memory > MaxArgon2idMemoryKiB:
		return fmt.Errorf("%w: argon2id memory too high (%d KiB)", ErrUnsupportedHasher, p.Memory)
	case p.Iterations == 0 || p.Iterations > MaxArgon2idIterations:
		return fmt.Errorf("%w: argon2id iterations out of range", ErrUnsupportedHasher)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: argon2id parallelism must be positive", ErrUnsupportedHasher)
	case p.SaltLength < 8:
		return fmt.Errorf("%w: argon2id salt must be at least 8 bytes", ErrUnsupportedHasher)
	case p.KeyLength < 16:
		return fmt.Errorf("%w: argon2id key must be at least 16 bytes", ErrUnsupportedHasher)
	}
	return nil
}

// Argon2idHasher produces PHC-format argon2id digests.
type Argon2idHasher struct {
	Params Argon2idParams
	Pepper string
}

// Hash generates a PHC-format Argon2id hash string including salt and parameters.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	p := h.Params
	salt := make([]byte, p.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey(
		[]byte(password+h.Pepper),
		salt,
		p.Iterations,
		p.Memory,
		p.Parallelism,
		p.KeyLength,
	)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		b64Salt,
		b64Hash,
	), nil
}

// Verify reports whether password matches the encoded digest.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	return h.compare(password, encodedHash) == nil
}

// NeedsRehash reports whether the digest was made with cheaper parameters
// than the hasher is configured with.
func (h *Argon2idHasher) NeedsRehash(encodedHash string) bool {
	d, err := decodeArgon2id(encodedHash)
	if err != nil {
		return true
	}
	return d.memory < h.Params.Memory ||
		d.iterations < h.Params.Iterations ||
		uint32(len(d.hash)) < h.Params.KeyLength // #nosec G115 - digest length is tiny
}

// compare returns nil on a match, ErrPasswordMismatch on a mismatch and a
// format error when the digest cannot be parsed.
func (h *Argon2idHasher) compare(password, encodedHash string) error {
	d, err := decodeArgon2id(encodedHash)
	if err != nil {
		return err
	}

	computed := argon2.IDKey(
		[]byte(password+h.Pepper),
		d.salt,
		d.iterations,
		d.memory,
		d.parallelism,
		uint32(len(d.hash)), // #nosec G115 - If this overflows we have bigger problems
	)

	if subtle.ConstantTimeCompare(computed, d.hash) == 1 {
		return nil
	}
	return ErrPasswordMismatch
}

type argon2idDigest struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// decodeArgon2id parses $argon2id$v=19$m=X,t=Y,p=Z$salt$hash.
func decodeArgon2id(encodedHash string) (argon2idDigest, error) {
	var d argon2idDigest

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "" {
		return d, fmt.Errorf("%w: expected 6 parts", errMalformedDigest)
	}
	if parts[1] != AlgorithmArgon2id {
		return d, fmt.Errorf("%w: not argon2id", errMalformedDigest)
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return d, fmt.Errorf("%w: wrong version", errMalformedDigest)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.memory, &d.iterations, &d.parallelism); err != nil {
		return d, fmt.Errorf("%w: failed to parse parameters: %w", errMalformedDigest, err)
	}
	if d.memory == 0 || d.iterations == 0 || d.parallelism == 0 {
		return d, fmt.Errorf("%w: zero parameter", errMalformedDigest)
	}
	// A corrupt digest must not be able to demand unbounded work.
	if d.memory > MaxArgon2idMemoryKiB || d.iterations > MaxArgon2idIterations {
		return d, fmt.Errorf("%w: parameters out of range", errMalformedDigest)
	}

	var err error
	d.salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return d, fmt.Errorf("%w: failed to decode salt: %w", errMalformedDigest, err)
	}
	d.hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return d, fmt.Errorf("%w: failed to decode hash: %w", errMalformedDigest, err)
	}
	if len(d.salt) == 0 || len(d.hash) == 0 {
		return d, fmt.Errorf("%w: empty salt or hash", errMalformedDigest)
	}

	return d, nil
}
