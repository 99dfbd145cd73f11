package domain

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrEmptyUserName       = errors.New("first and last name cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents an account owner. It carries the personal record that a
// payment card's holder name is copied from at creation time.
type User struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	PESEL          string    `json:"-"` // National identity number, never exposed
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given personal data.
// It generates a new UUID for the user ID and sets the creation/update
// timestamps. Returns an error if validation fails.
//
// NOTE: This function only sets up the user structure with the plaintext
// password. The caller is responsible for hashing the password before
// storing the user.
func NewUser(email, password, firstName, lastName, pesel string) (*User, error) {
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password, // Plaintext password - must be hashed before storage
		FirstName: firstName,
		LastName:  lastName,
		PESEL:     pesel,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !emailPattern.MatchString(u.Email) {
		return ErrInvalidEmail
	}

	if u.FirstName == "" || u.LastName == "" {
		return ErrEmptyUserName
	}

	if !ValidatePESEL(u.PESEL) {
		return ErrInvalidPESEL
	}

	// During registration we validate the provided plaintext password.
	// Existing users loaded from the store carry only the hash.
	if u.Password != "" {
		if len(u.Password) < 8 {
			return ErrPasswordTooShort
		}
		if len(u.Password) > 72 { // bcrypt's practical limit
			return ErrPasswordTooLong
		}
	} else if u.HashedPassword == "" {
		return ErrEmptyPassword
	}

	return nil
}

// peselWeights are the checksum weights for the first ten PESEL digits.
var peselWeights = [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}

// ValidatePESEL reports whether the given string is a syntactically valid
// PESEL number: exactly 11 ASCII digits with a matching checksum digit.
func ValidatePESEL(pesel string) bool {
	if len(pesel) != 11 {
		return false
	}

	sum := 0
	for i := 0; i < 10; i++ {
		d := pesel[i]
		if d < '0' || d > '9' {
			return false
		}
		sum += int(d-'0') * peselWeights[i]
	}

	check := pesel[10]
	if check < '0' || check > '9' {
		return false
	}

	return (10-sum%10)%10 == int(check-'0')
}
