package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/config"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/domain/cardstate"
	"github.com/pwalczak/cardbank/internal/domain/money"
	"github.com/pwalczak/cardbank/internal/platform/logger"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/pwalczak/cardbank/internal/store"
	"github.com/shopspring/decimal"
)

// Bounds of the simulated activation processing delay, in time units.
const (
	activationDelayMinUnits = 5
	activationDelayMaxUnits = 15
)

// cardNumberLength and verificationLength fix the digit counts of the two
// generated card secrets.
const (
	cardNumberLength   = 16
	verificationLength = 3
)

// CardDefaults carries the fixed values applied to every card at creation.
type CardDefaults struct {
	MaxDebt             decimal.Decimal
	Fees                domain.CardFees
	MinTransactions     int
	ActivationDelayBase time.Duration
}

// CardDefaultsFromConfig parses the configured card defaults. Monetary
// values travel through config as decimal strings and are validated with
// the same rules as user-entered amounts.
func CardDefaultsFromConfig(cfg config.CardConfig) (CardDefaults, error) {
	maxDebt, err := money.ParseLimit(cfg.MaxDebt)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("invalid max_debt: %w", err)
	}
	if !maxDebt.IsPositive() {
		return CardDefaults{}, fmt.Errorf("invalid max_debt: %w", money.ErrOutOfRange)
	}

	domestic, err := money.ParseLimit(cfg.FeeWithdrawalDomestic)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("invalid fee_withdrawal_domestic: %w", err)
	}

	abroad, err := money.ParseLimit(cfg.FeeWithdrawalAbroad)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("invalid fee_withdrawal_abroad: %w", err)
	}

	maintenance, err := money.ParseLimit(cfg.FeeMaintenance)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("invalid fee_maintenance: %w", err)
	}

	return CardDefaults{
		MaxDebt: maxDebt,
		Fees: domain.CardFees{
			WithdrawalDomestic: domestic,
			WithdrawalAbroad:   abroad,
			Maintenance:        maintenance,
		},
		MinTransactions:     cfg.MinTransactions,
		ActivationDelayBase: time.Duration(cfg.ActivationDelayBaseMS) * time.Millisecond,
	}, nil
}

// CardService provides the payment card lifecycle operations: creation and
// the dispatch of every state-dependent card operation.
type CardService interface {
	// CreateCard builds a new card in status NotActivated attached to the
	// given bank account. The holder name is copied from the account
	// owner's record, the expiry is five years out, and a unique 16-digit
	// number plus 3-digit verification value are generated and hashed. The
	// PIN, the four daily limits and the debit-overdraft toggle are read
	// through the prompter.
	CreateCard(ctx context.Context, accountID uuid.UUID, p Prompter) (*domain.PaymentCard, error)

	// Dispatch resolves the card's current status (re-read from the store
	// on every call) and routes the operation through the card status
	// machine. The full transition plus side effects commit atomically or
	// not at all.
	Dispatch(ctx context.Context, cardID uuid.UUID, op cardstate.Operation, p Prompter) error

	// ListCards returns the cards attached to a bank account.
	ListCards(ctx context.Context, accountID uuid.UUID) ([]*domain.PaymentCard, error)
}

// cardServiceImpl implements the CardService interface.
type cardServiceImpl struct {
	cards    store.CardStore
	accounts store.AccountStore
	users    store.UserStore
	hasher   secret.Hasher
	numbers  secret.NumberSource
	sleeper  Sleeper
	defaults CardDefaults
	logger   *slog.Logger

	// runTx wraps store.RunInTransaction; tests replace it to run against
	// in-memory fakes without a database.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewCardService creates a new CardService.
// It returns an error if any of the required dependencies are nil.
func NewCardService(
	db *sql.DB,
	cards store.CardStore,
	accounts store.AccountStore,
	users store.UserStore,
	hasher secret.Hasher,
	numbers secret.NumberSource,
	sleeper Sleeper,
	defaults CardDefaults,
	log *slog.Logger,
) (CardService, error) {
	if db == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if cards == nil {
		return nil, domain.NewValidationError("cards", "cannot be nil", domain.ErrValidation)
	}
	if accounts == nil {
		return nil, domain.NewValidationError("accounts", "cannot be nil", domain.ErrValidation)
	}
	if users == nil {
		return nil, domain.NewValidationError("users", "cannot be nil", domain.ErrValidation)
	}
	if hasher == nil {
		return nil, domain.NewValidationError("hasher", "cannot be nil", domain.ErrValidation)
	}
	if numbers == nil {
		numbers = secret.NewRandomNumberSource()
	}
	if sleeper == nil {
		sleeper = NewSleeper()
	}
	if log == nil {
		log = slog.Default()
	}

	return &cardServiceImpl{
		cards:    cards,
		accounts: accounts,
		users:    users,
		hasher:   hasher,
		numbers:  numbers,
		sleeper:  sleeper,
		defaults: defaults,
		logger:   log.With(slog.String("component", "card_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}, nil
}

// CreateCard implements CardService.CreateCard
func (s *cardServiceImpl) CreateCard(ctx context.Context, accountID uuid.UUID, p Prompter) (*domain.PaymentCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var created *domain.PaymentCard
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		accounts := s.accounts.WithTx(tx)
		users := s.users.WithTx(tx)

		account, err := accounts.GetByID(ctx, accountID)
		if err != nil {
			return NewCardServiceError("create_card", "failed to load account", err)
		}

		owner, err := users.GetByID(ctx, account.OwnerID)
		if err != nil {
			return NewCardServiceError("create_card", "failed to load account owner", err)
		}

		pin, err := p.PromptPIN(ctx, "Choose a PIN for the new card")
		if err != nil {
			return err
		}
		pinHash, err := s.hasher.Hash(pin)
		if err != nil {
			return NewCardServiceError("create_card", "failed to hash PIN", err)
		}

		verification := s.numbers.Digits(verificationLength)
		verificationHash, err := s.hasher.Hash(verification)
		if err != nil {
			return NewCardServiceError("create_card", "failed to hash verification value", err)
		}

		limits, err := s.promptLimits(ctx, p)
		if err != nil {
			return err
		}

		debitActive, err := p.PromptBool(ctx, "Enable the debit overdraft option?")
		if err != nil {
			return err
		}
		debtBalance := decimal.Zero
		if debitActive {
			debtBalance, err = p.PromptDebt(ctx, "Initial debt balance", s.defaults.MaxDebt)
			if err != nil {
				return err
			}
		}

		// Retry with a fresh number until it is unique. With a 10^16
		// keyspace this loop almost never runs twice.
		for {
			number := s.numbers.Digits(cardNumberLength)
			numberHash := secret.DigestNumber(number)

			if _, err := cards.GetByNumberHash(ctx, numberHash); err == nil {
				log.Debug("card number collision, regenerating")
				continue
			} else if !errors.Is(err, store.ErrCardNotFound) {
				return NewCardServiceError("create_card", "failed to check number uniqueness", err)
			}

			card, err := domain.NewPaymentCard(domain.NewPaymentCardParams{
				AccountID:        account.ID,
				HolderFirstName:  owner.FirstName,
				HolderLastName:   owner.LastName,
				ExpiresAt:        time.Now().UTC().AddDate(5, 0, 0),
				PINHash:          pinHash,
				NumberMasked:     secret.MaskNumber(number),
				NumberHash:       numberHash,
				VerificationHash: verificationHash,
				Limits:           limits,
				Fees:             s.defaults.Fees,
				MinTransactions:  s.defaults.MinTransactions,
				DebitActive:      debitActive,
				DebtBalance:      debtBalance,
				MaxDebt:          s.defaults.MaxDebt,
			})
			if err != nil {
				return NewCardServiceError("create_card", "failed to build card", err)
			}

			err = cards.Create(ctx, card)
			if errors.Is(err, store.ErrCardNumberExists) {
				log.Debug("card number collision on insert, regenerating")
				continue
			}
			if err != nil {
				return NewCardServiceError("create_card", "failed to save card", err)
			}

			created = card
			return nil
		}
	})
	if err != nil {
		return nil, err
	}

	log.Info("card created",
		slog.String("card_id", created.ID.String()),
		slog.String("account_id", accountID.String()))
	return created, nil
}

// Dispatch implements CardService.Dispatch
func (s *cardServiceImpl) Dispatch(ctx context.Context, cardID uuid.UUID, op cardstate.Operation, p Prompter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !cardstate.IsValidOperation(op) {
		return NewCardServiceError("dispatch", "unsupported operation",
			fmt.Errorf("%w: %q", domain.ErrUnknownCardOperation, string(op)))
	}

	return s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)

		// Status is always re-read from storage; dispatch never trusts a
		// cached status from an earlier call.
		card, err := cards.GetByID(ctx, cardID)
		if err != nil {
			return NewCardServiceError("dispatch", "failed to load card", err)
		}

		decision, err := cardstate.Decide(card.Status, op)
		if err != nil {
			return NewCardServiceError("dispatch", "status machine rejected card", err)
		}

		mutated := false
		if decision.Action == cardstate.ActionActivateFirst {
			if err := s.runActivation(ctx, card, p); err != nil {
				return err
			}
			mutated = true

			// The originally requested operation now dispatches against
			// the Activated status.
			decision, err = cardstate.Decide(card.Status, op)
			if err != nil {
				return NewCardServiceError("dispatch", "status machine rejected card", err)
			}
		}

		switch decision.Action {
		case cardstate.ActionRefuse:
			// An illegal-state refusal is not an error: report the
			// advisory and complete having mutated nothing further.
			p.Notice(decision.Advisory)

		case cardstate.ActionTransition:
			card.Status = decision.Target
			card.UpdatedAt = time.Now().UTC()
			mutated = true
			p.Notice(transitionNotice(decision.Target))
			log.Info("card status transition",
				slog.String("card_id", card.ID.String()),
				slog.String("status", string(decision.Target)),
				slog.String("operation", string(op)))

		case cardstate.ActionPerform:
			performed, err := s.perform(ctx, card, op, p)
			if err != nil {
				return err
			}
			mutated = mutated || performed
		}

		if !mutated {
			return nil
		}

		if err := cards.Update(ctx, card); err != nil {
			return NewCardServiceError("dispatch", "failed to save card", err)
		}
		return nil
	})
}

// ListCards implements CardService.ListCards
func (s *cardServiceImpl) ListCards(ctx context.Context, accountID uuid.UUID) ([]*domain.PaymentCard, error) {
	cards, err := s.cards.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, NewCardServiceError("list_cards", "failed to list cards", err)
	}
	return cards, nil
}

// runActivation performs the one-time PIN-gated activation flow: prompt for
// the PIN, verify it against the stored hash (re-prompting indefinitely on
// mismatch, no lockout counter), block through the simulated processing
// delay, then move the card to Activated. The caller persists the card.
func (s *cardServiceImpl) runActivation(ctx context.Context, card *domain.PaymentCard, p Prompter) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for {
		pin, err := p.PromptPIN(ctx, "Enter PIN to activate the card")
		if err != nil {
			return err
		}
		if s.hasher.Verify(pin, card.PINHash) {
			break
		}
		p.Notice("incorrect PIN")
	}

	units := activationDelayMinUnits +
		rand.IntN(activationDelayMaxUnits-activationDelayMinUnits+1)
	delay := time.Duration(units) * s.defaults.ActivationDelayBase

	log.Debug("activation processing",
		slog.String("card_id", card.ID.String()),
		slog.Duration("delay", delay))
	p.Notice("activating card, please wait...")

	if err := s.sleeper.Sleep(ctx, delay); err != nil {
		return NewCardServiceError("activate", "activation interrupted", err)
	}

	card.Status = domain.CardStatusActivated
	card.UpdatedAt = time.Now().UTC()
	p.Notice("card activated")

	log.Info("card activated",
		slog.String("card_id", card.ID.String()))
	return nil
}

// perform executes an in-place operation against an activated card.
// It reports whether the card was mutated and must be saved.
func (s *cardServiceImpl) perform(ctx context.Context, card *domain.PaymentCard, op cardstate.Operation, p Prompter) (bool, error) {
	switch op {
	case cardstate.OpShowCard:
		p.ShowCard(card)
		return false, nil

	case cardstate.OpChangeLimits:
		limits, err := s.promptLimits(ctx, p)
		if err != nil {
			return false, err
		}
		card.Limits = limits
		card.UpdatedAt = time.Now().UTC()
		p.Notice("card limits updated")
		return true, nil

	case cardstate.OpChangePIN:
		pin, err := p.PromptPIN(ctx, "Enter new PIN")
		if err != nil {
			return false, err
		}
		pinHash, err := s.hasher.Hash(pin)
		if err != nil {
			return false, NewCardServiceError("change_pin", "failed to hash PIN", err)
		}
		card.PINHash = pinHash
		card.UpdatedAt = time.Now().UTC()
		p.Notice("PIN changed")
		return true, nil

	case cardstate.OpToggleContactless:
		card.Contactless = !card.Contactless
		card.UpdatedAt = time.Now().UTC()
		p.Notice(toggleNotice("contactless payments", card.Contactless))
		return true, nil

	case cardstate.OpToggleMagneticStrip:
		card.MagneticStrip = !card.MagneticStrip
		card.UpdatedAt = time.Now().UTC()
		p.Notice(toggleNotice("magnetic strip", card.MagneticStrip))
		return true, nil

	case cardstate.OpToggleDDCService:
		card.DDCService = !card.DDCService
		card.UpdatedAt = time.Now().UTC()
		p.Notice(toggleNotice("DDC service", card.DDCService))
		return true, nil

	case cardstate.OpToggleSurcharge:
		card.Surcharge = !card.Surcharge
		card.UpdatedAt = time.Now().UTC()
		p.Notice(toggleNotice("surcharge", card.Surcharge))
		return true, nil

	case cardstate.OpToggleDebitOption:
		return s.toggleDebit(ctx, card, p)

	default:
		return false, NewCardServiceError("dispatch", "unsupported operation",
			fmt.Errorf("%w: %q", domain.ErrUnknownCardOperation, string(op)))
	}
}

// toggleDebit flips the debit overdraft option. Disabling it zeroes the
// debt balance; enabling it prompts for a new balance bounded by MaxDebt.
func (s *cardServiceImpl) toggleDebit(ctx context.Context, card *domain.PaymentCard, p Prompter) (bool, error) {
	if card.DebitActive {
		card.DebitActive = false
		card.DebtBalance = decimal.Zero
		card.UpdatedAt = time.Now().UTC()
		p.Notice("debit overdraft option disabled")
		return true, nil
	}

	debt, err := p.PromptDebt(ctx, "New debt balance", card.MaxDebt)
	if err != nil {
		return false, err
	}

	card.DebitActive = true
	card.DebtBalance = debt
	card.UpdatedAt = time.Now().UTC()
	p.Notice("debit overdraft option enabled")
	return true, nil
}

// promptLimits reads the four daily limit fields.
func (s *cardServiceImpl) promptLimits(ctx context.Context, p Prompter) (domain.CardLimits, error) {
	payment, err := p.PromptLimit(ctx, "Daily payment limit")
	if err != nil {
		return domain.CardLimits{}, err
	}
	withdrawal, err := p.PromptLimit(ctx, "Daily withdrawal limit")
	if err != nil {
		return domain.CardLimits{}, err
	}
	internet, err := p.PromptLimit(ctx, "Daily internet transaction limit")
	if err != nil {
		return domain.CardLimits{}, err
	}
	contactless, err := p.PromptLimit(ctx, "Daily contactless limit")
	if err != nil {
		return domain.CardLimits{}, err
	}

	return domain.CardLimits{
		PaymentDaily:     payment,
		WithdrawalDaily:  withdrawal,
		InternetDaily:    internet,
		ContactlessDaily: contactless,
	}, nil
}

// transitionNotice maps a transition target to its confirmation line.
func transitionNotice(target domain.CardStatus) string {
	switch target {
	case domain.CardStatusBlockedTemporarily:
		return "card blocked temporarily"
	case domain.CardStatusBlockedPermanently:
		return "card blocked permanently"
	case domain.CardStatusActivated:
		return "card unlocked"
	default:
		return "card status changed"
	}
}

// toggleNotice renders the confirmation line for a boolean toggle.
func toggleNotice(name string, enabled bool) string {
	if enabled {
		return name + " enabled"
	}
	return name + " disabled"
}
