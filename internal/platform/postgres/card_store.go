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

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, log *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: log.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// cardColumns is the fixed column list shared by every SELECT.
const cardColumns = `
	id, account_id, holder_first_name, holder_last_name, expires_at, status,
	pin_hash, number_masked, number_hash, verification_hash,
	limit_payment_daily, limit_withdrawal_daily, limit_internet_daily, limit_contactless_daily,
	fee_withdrawal_domestic, fee_withdrawal_abroad, fee_maintenance,
	min_transactions, contactless, magnetic_strip, ddc_service, surcharge,
	debit_active, debt_balance, max_debt, created_at, updated_at
`

// Create implements store.CardStore.Create
// It saves a new payment card to the database, handling domain validation.
// Returns store.ErrCardNumberExists on a duplicate number digest so the
// caller can regenerate and retry.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.PaymentCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO payment_cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.AccountID,
		card.HolderFirstName,
		card.HolderLastName,
		card.ExpiresAt,
		string(card.Status),
		card.PINHash,
		card.NumberMasked,
		card.NumberHash,
		card.VerificationHash,
		card.Limits.PaymentDaily,
		card.Limits.WithdrawalDaily,
		card.Limits.InternetDaily,
		card.Limits.ContactlessDaily,
		card.Fees.WithdrawalDomestic,
		card.Fees.WithdrawalAbroad,
		card.Fees.Maintenance,
		card.MinTransactions,
		card.Contactless,
		card.MagneticStrip,
		card.DDCService,
		card.Surcharge,
		card.DebitActive,
		card.DebtBalance,
		card.MaxDebt,
		card.CreatedAt,
		card.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Debug("card number digest collision during create",
				slog.String("card_id", card.ID.String()))
			return store.ErrCardNumberExists
		}
		if isForeignKeyViolation(err) {
			log.Warn("foreign key violation during card creation",
				slog.String("error", err.Error()),
				slog.String("account_id", card.AccountID.String()))
			return fmt.Errorf("%w: account with ID %s not found",
				store.ErrInvalidEntity, card.AccountID)
		}

		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	log.Info("card created successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("account_id", card.AccountID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID
// It retrieves a card by its unique ID.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCard, error) {
	query := `SELECT ` + cardColumns + ` FROM payment_cards WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByNumberHash implements store.CardStore.GetByNumberHash
// It retrieves a card by the deterministic digest of its number.
// Returns store.ErrCardNotFound if no card carries that digest.
func (s *PostgresCardStore) GetByNumberHash(ctx context.Context, numberHash string) (*domain.PaymentCard, error) {
	query := `SELECT ` + cardColumns + ` FROM payment_cards WHERE number_hash = $1`
	return s.getOne(ctx, query, numberHash)
}

// GetByAccount implements store.CardStore.GetByAccount
// It retrieves every card attached to the given bank account.
func (s *PostgresCardStore) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.PaymentCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + cardColumns + ` FROM payment_cards WHERE account_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, accountID)
	if err != nil {
		log.Error("failed to list cards by account",
			slog.String("error", err.Error()),
			slog.String("account_id", accountID.String()))
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.PaymentCard
	for rows.Next() {
		card, err := scanCard(rows.Scan)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// Update implements store.CardStore.Update
// It persists every mutable field of an existing card.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.PaymentCard) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE payment_cards SET
			status = $2,
			pin_hash = $3,
			limit_payment_daily = $4,
			limit_withdrawal_daily = $5,
			limit_internet_daily = $6,
			limit_contactless_daily = $7,
			contactless = $8,
			magnetic_strip = $9,
			ddc_service = $10,
			surcharge = $11,
			debit_active = $12,
			debt_balance = $13,
			updated_at = $14
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		string(card.Status),
		card.PINHash,
		card.Limits.PaymentDaily,
		card.Limits.WithdrawalDaily,
		card.Limits.InternetDaily,
		card.Limits.ContactlessDaily,
		card.Contactless,
		card.MagneticStrip,
		card.DDCService,
		card.Surcharge,
		card.DebitActive,
		card.DebtBalance,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", store.ErrUpdateFailed, err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}

	log.Debug("card updated successfully",
		slog.String("card_id", card.ID.String()),
		slog.String("status", string(card.Status)))
	return nil
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// getOne runs a single-row card query and maps sql.ErrNoRows to
// store.ErrCardNotFound.
func (s *PostgresCardStore) getOne(ctx context.Context, query string, arg any) (*domain.PaymentCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, query, arg)
	card, err := scanCard(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()))
		return nil, err
	}

	return card, nil
}

// scanCard reads one card row. An unknown status discriminator is a fatal
// integrity error (domain.ErrUnknownCardStatus), never silently coerced.
func scanCard(scan func(dest ...any) error) (*domain.PaymentCard, error) {
	var card domain.PaymentCard
	var status string

	err := scan(
		&card.ID,
		&card.AccountID,
		&card.HolderFirstName,
		&card.HolderLastName,
		&card.ExpiresAt,
		&status,
		&card.PINHash,
		&card.NumberMasked,
		&card.NumberHash,
		&card.VerificationHash,
		&card.Limits.PaymentDaily,
		&card.Limits.WithdrawalDaily,
		&card.Limits.InternetDaily,
		&card.Limits.ContactlessDaily,
		&card.Fees.WithdrawalDomestic,
		&card.Fees.WithdrawalAbroad,
		&card.Fees.Maintenance,
		&card.MinTransactions,
		&card.Contactless,
		&card.MagneticStrip,
		&card.DDCService,
		&card.Surcharge,
		&card.DebitActive,
		&card.DebtBalance,
		&card.MaxDebt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	card.Status, err = domain.ParseCardStatus(status)
	if err != nil {
		return nil, err
	}

	return &card, nil
}
