package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/platform/logger"
	"github.com/pwalczak/cardbank/internal/store"
)

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the
// AccountStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, log *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresAccountStore{
		db:     db,
		logger: log.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

// Create implements store.AccountStore.Create
// Returns store.ErrDuplicate if the account number already exists.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.BankAccount) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	query := `
		INSERT INTO bank_accounts (id, owner_id, number, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		account.ID,
		account.OwnerID,
		account.Number,
		account.Balance,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: owner with ID %s not found",
				store.ErrInvalidEntity, account.OwnerID)
		}

		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	log.Info("account created successfully",
		slog.String("account_id", account.ID.String()),
		slog.String("owner_id", account.OwnerID.String()))
	return nil
}

// GetByID implements store.AccountStore.GetByID
// Returns store.ErrAccountNotFound if the account does not exist.
func (s *PostgresAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, number, balance, created_at, updated_at
		FROM bank_accounts
		WHERE id = $1
	`

	var account domain.BankAccount
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.OwnerID,
		&account.Number,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		log.Error("failed to get account by ID",
			slog.String("error", err.Error()),
			slog.String("account_id", id.String()))
		return nil, err
	}

	return &account, nil
}

// GetByOwner implements store.AccountStore.GetByOwner
func (s *PostgresAccountStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, number, balance, created_at, updated_at
		FROM bank_accounts
		WHERE owner_id = $1
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list accounts by owner",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var accounts []*domain.BankAccount
	for rows.Next() {
		var account domain.BankAccount
		err := rows.Scan(
			&account.ID,
			&account.OwnerID,
			&account.Number,
			&account.Balance,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return accounts, nil
}

// Update implements store.AccountStore.Update
// Returns store.ErrAccountNotFound if the account does not exist.
func (s *PostgresAccountStore) Update(ctx context.Context, account *domain.BankAccount) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE bank_accounts SET balance = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query, account.ID, account.Balance, account.UpdatedAt)
	if err != nil {
		log.Error("failed to update account",
			slog.String("error", err.Error()),
			slog.String("account_id", account.ID.String()))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}
	if affected == 0 {
		return store.ErrAccountNotFound
	}

	return nil
}

// WithTx implements store.AccountStore.WithTx
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) store.AccountStore {
	return &PostgresAccountStore{
		db:     tx,
		logger: s.logger,
	}
}
