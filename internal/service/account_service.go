package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/pwalczak/cardbank/internal/store"
	"github.com/shopspring/decimal"
)

// accountNumberLength is the digit count of a generated account number.
const accountNumberLength = 26

// AccountService provides bank account management for a signed-in owner.
type AccountService interface {
	// CreateAccount opens a new zero-balance account for the given owner
	// with a generated 26-digit account number.
	CreateAccount(ctx context.Context, ownerID uuid.UUID) (*domain.BankAccount, error)

	// ListAccounts returns every account owned by the given user.
	ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error)

	// Deposit adds the amount to the account balance.
	Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error

	// Withdraw subtracts the amount from the account balance.
	// Returns domain.ErrInsufficientFunds if the balance would go negative.
	Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error
}

// accountServiceImpl implements the AccountService interface.
type accountServiceImpl struct {
	accounts store.AccountStore
	numbers  secret.NumberSource
	logger   *slog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accounts store.AccountStore, numbers secret.NumberSource, log *slog.Logger) (AccountService, error) {
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if numbers == nil {
		numbers = secret.NewRandomNumberSource()
	}
	if log == nil {
		log = slog.Default()
	}

	return &accountServiceImpl{
		accounts: accounts,
		numbers:  numbers,
		logger:   log.With(slog.String("component", "account_service")),
	}, nil
}

// CreateAccount implements AccountService.CreateAccount
func (s *accountServiceImpl) CreateAccount(ctx context.Context, ownerID uuid.UUID) (*domain.BankAccount, error) {
	// Regenerate on a number collision, same as card numbers.
	for {
		account, err := domain.NewBankAccount(ownerID, s.numbers.Digits(accountNumberLength))
		if err != nil {
			return nil, err
		}

		err = s.accounts.Create(ctx, account)
		if errors.Is(err, store.ErrDuplicate) {
			s.logger.Debug("account number collision, regenerating")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create account: %w", err)
		}

		s.logger.Info("account created",
			slog.String("account_id", account.ID.String()),
			slog.String("owner_id", ownerID.String()))
		return account, nil
	}
}

// ListAccounts implements AccountService.ListAccounts
func (s *accountServiceImpl) ListAccounts(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error) {
	accounts, err := s.accounts.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Deposit implements AccountService.Deposit
func (s *accountServiceImpl) Deposit(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return s.adjust(ctx, accountID, func(account *domain.BankAccount) error {
		return account.Deposit(amount)
	})
}

// Withdraw implements AccountService.Withdraw
func (s *accountServiceImpl) Withdraw(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal) error {
	return s.adjust(ctx, accountID, func(account *domain.BankAccount) error {
		return account.Withdraw(amount)
	})
}

// adjust loads an account, applies the mutation and saves it back.
func (s *accountServiceImpl) adjust(ctx context.Context, accountID uuid.UUID, fn func(*domain.BankAccount) error) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}

	if err := fn(account); err != nil {
		return err
	}

	if err := s.accounts.Update(ctx, account); err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}

	return nil
}
