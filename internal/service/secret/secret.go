// Package secret handles the one-way hashing and verification of card
// secrets (PIN and verification value) and the generation of random card
// digits. Plaintext secrets never leave this package in persisted form.
package secret

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// Syntactic validation errors.
var (
	// ErrInvalidPIN is returned when a PIN is not exactly 4 ASCII digits.
	// A malformed PIN is never hashed.
	ErrInvalidPIN = errors.New("PIN must be exactly 4 digits")
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// Hasher defines the interface for one-way hashing and verifying secrets.
type Hasher interface {
	// Hash produces a one-way digest of the given plaintext secret.
	Hash(plain string) (string, error)

	// Verify reports whether plain matches the stored hash.
	Verify(plain, hash string) bool
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new BcryptHasher with the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash implements the Hasher interface using bcrypt.
func (h *BcryptHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify implements the Hasher interface using bcrypt.
func (h *BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidatePIN checks PIN syntax: exactly 4 ASCII digits.
// Returns ErrInvalidPIN otherwise.
func ValidatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return ErrInvalidPIN
	}
	return nil
}

// DigestNumber produces a deterministic hex-encoded SHA-256 digest of a
// card number. Unlike bcrypt output this digest is stable across calls,
// which makes it usable as the persisted uniqueness/lookup key while the
// plaintext number itself never hits storage.
func DigestNumber(number string) string {
	sum := sha256.Sum256([]byte(number))
	return hex.EncodeToString(sum[:])
}

// MaskNumber renders a 16-digit card number in its masked display form,
// keeping only the last 4 digits.
func MaskNumber(number string) string {
	if len(number) < 4 {
		return number
	}
	return "**** **** **** " + number[len(number)-4:]
}

// NumberSource produces uniformly random decimal digit strings. It exists
// as an interface so tests can script deterministic card numbers.
type NumberSource interface {
	// Digits returns a string of n uniformly random decimal digits.
	Digits(n int) string
}

// randSource implements NumberSource with math/rand/v2.
type randSource struct{}

// NewRandomNumberSource creates a NumberSource backed by the process-wide
// random generator.
func NewRandomNumberSource() NumberSource {
	return randSource{}
}

// Digits implements the NumberSource interface.
func (randSource) Digits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rand.IntN(10))
	}
	return string(buf)
}
