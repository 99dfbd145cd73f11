package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common validation errors for BankAccount
var (
	ErrEmptyAccountID      = errors.New("account ID cannot be empty")
	ErrEmptyAccountOwner   = errors.New("account owner ID cannot be empty")
	ErrInvalidAccountNum   = errors.New("account number must be exactly 26 digits")
	ErrNegativeBalance     = errors.New("account balance cannot be negative")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrNonPositiveMovement = errors.New("amount must be greater than zero")
)

// BankAccount represents a single bank account owned by a User.
// A PaymentCard is attached 1:1 to a BankAccount.
type BankAccount struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Number    string          `json:"number"` // 26-digit account number
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewBankAccount creates a new BankAccount for the given owner with a zero
// balance. Returns an error if validation fails.
func NewBankAccount(ownerID uuid.UUID, number string) (*BankAccount, error) {
	account := &BankAccount{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Number:    number,
		Balance:   decimal.Zero,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the BankAccount has valid data.
// Returns an error if any field fails validation.
func (a *BankAccount) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyAccountID
	}

	if a.OwnerID == uuid.Nil {
		return ErrEmptyAccountOwner
	}

	if !isDigits(a.Number) || len(a.Number) != 26 {
		return ErrInvalidAccountNum
	}

	if a.Balance.IsNegative() {
		return ErrNegativeBalance
	}

	return nil
}

// Deposit adds the given positive amount to the account balance.
func (a *BankAccount) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveMovement
	}

	a.Balance = a.Balance.Add(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Withdraw subtracts the given positive amount from the account balance.
// Returns ErrInsufficientFunds if the balance would go negative.
func (a *BankAccount) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveMovement
	}

	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	a.Balance = a.Balance.Sub(amount)
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// isDigits reports whether s is non-empty and consists only of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
