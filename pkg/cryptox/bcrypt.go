package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 10

// bcrypt only reads the first 72 bytes of its input.
const bcryptMaxPasswordBytes = 72

func validateBcryptCost(cost int) error {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("%w: bcrypt cost %d outside [%d, %d]",
			ErrUnsupportedHasher, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// BcryptHasher produces modular-crypt bcrypt digests. bcrypt salts
// internally, so hashing the same password twice yields different digests.
type BcryptHasher struct {
	Cost int
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > bcryptMaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", err
	}
	return string(digest), nil
}

// Verify compares a plaintext password with a bcrypt digest. Corrupt
// digests are reported as a mismatch, and so is any password Hash would
// have refused: bcrypt ignores input past 72 bytes.
func (h *BcryptHasher) Verify(password, digest string) bool {
	if password == "" || len(password) > bcryptMaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

func (h *BcryptHasher) NeedsRehash(digest string) bool {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return true
	}
	return cost < h.Cost
}
