package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
)

// AccountStore defines the interface for bank account persistence.
type AccountStore interface {
	// Create saves a new bank account to the store.
	// Returns ErrDuplicate if an account with the same number exists.
	Create(ctx context.Context, account *domain.BankAccount) error

	// GetByID retrieves an account by its unique ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error)

	// GetByOwner retrieves every account owned by the given user.
	GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error)

	// Update persists the mutable fields of an existing account.
	// Returns ErrAccountNotFound if the account does not exist.
	Update(ctx context.Context, account *domain.BankAccount) error

	// WithTx returns a new AccountStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) AccountStore
}
