package gate

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// KeyVerifier checks the shared secret presented by the detector.
type KeyVerifier interface {
	Verify(key string) error
}

// BcryptVerifier compares presented keys against a bcrypt hash from config,
// so the plain key is never stored on the service side.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier returns a verifier for the given bcrypt hash.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if hash == "" {
		return nil, errors.New("gate: empty api key hash")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errors.New("gate: api key hash is not a bcrypt hash")
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// Verify reports whether the presented key matches the configured hash.
func (v *BcryptVerifier) Verify(key string) error {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(key))
}
