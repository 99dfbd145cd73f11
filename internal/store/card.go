package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
)

// CardStore defines the interface for payment card persistence.
//
// Implementations provide read-your-writes semantics inside a transaction:
// a card saved through a WithTx store is visible to subsequent reads on the
// same transaction, and nothing is externally visible until commit.
type CardStore interface {
	// Create saves a new payment card to the store.
	// Returns ErrCardNumberExists if a card with the same number digest
	// already exists; callers regenerate the number and retry.
	// Returns validation errors if the card data violates an invariant.
	Create(ctx context.Context, card *domain.PaymentCard) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	// Returns domain.ErrUnknownCardStatus (fatal integrity error) if the
	// persisted status discriminator names none of the four statuses.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCard, error)

	// GetByNumberHash retrieves a card by the deterministic digest of its
	// number. Returns ErrCardNotFound if no card carries that digest.
	GetByNumberHash(ctx context.Context, numberHash string) (*domain.PaymentCard, error)

	// GetByAccount retrieves the cards attached to the given bank account.
	GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.PaymentCard, error)

	// Update persists every mutable field of an existing card.
	// Returns ErrCardNotFound if the card does not exist.
	Update(ctx context.Context, card *domain.PaymentCard) error

	// WithTx returns a new CardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically the card lifecycle service via store.RunInTransaction).
	WithTx(tx *sql.Tx) CardStore
}
