package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CardStatus is the discriminator controlling which operations a payment
// card accepts. It is persisted verbatim (case-sensitive); any other value
// on load is an integrity error, not a recoverable one.
type CardStatus string

// The four card statuses. There is no "uninitialized" status: a card is
// created as NotActivated and BlockedPermanently is terminal.
const (
	CardStatusNotActivated       CardStatus = "NotActivated"
	CardStatusActivated          CardStatus = "Activated"
	CardStatusBlockedTemporarily CardStatus = "BlockedTemporarily"
	CardStatusBlockedPermanently CardStatus = "BlockedPermanently"
)

// Common validation errors for PaymentCard
var (
	ErrEmptyCardID             = errors.New("card ID cannot be empty")
	ErrEmptyCardAccountID      = errors.New("card account ID cannot be empty")
	ErrEmptyCardHolder         = errors.New("card holder name cannot be empty")
	ErrEmptyCardPINHash        = errors.New("card PIN hash cannot be empty")
	ErrEmptyCardNumberHash     = errors.New("card number hash cannot be empty")
	ErrEmptyVerificationHash   = errors.New("card verification value hash cannot be empty")
	ErrZeroCardExpiry          = errors.New("card expiry date cannot be zero")
	ErrInvalidLimitScale       = errors.New("limit must be non-negative with at most 2 decimal places")
	ErrInvalidFee              = errors.New("fee must be non-negative with at most 2 decimal places")
	ErrInvalidMaxDebt          = errors.New("max debt must be positive with at most 2 decimal places")
	ErrDebtBalanceInconsistent = errors.New("debt balance is inconsistent with the debit option toggle")
)

// ParseCardStatus converts a persisted discriminator string into a
// CardStatus. Returns ErrUnknownCardStatus (wrapped with the offending
// value) for anything outside the closed status set.
func ParseCardStatus(s string) (CardStatus, error) {
	status := CardStatus(s)
	if !isValidCardStatus(status) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCardStatus, s)
	}
	return status, nil
}

// isValidCardStatus checks if the given status is a valid CardStatus.
func isValidCardStatus(status CardStatus) bool {
	switch status {
	case CardStatusNotActivated, CardStatusActivated,
		CardStatusBlockedTemporarily, CardStatusBlockedPermanently:
		return true
	default:
		return false
	}
}

// CardLimits holds the four daily monetary limits of a card.
// Every limit is a non-negative fixed-point amount with at most
// 2 decimal places.
type CardLimits struct {
	PaymentDaily     decimal.Decimal `json:"payment_daily"`
	WithdrawalDaily  decimal.Decimal `json:"withdrawal_daily"`
	InternetDaily    decimal.Decimal `json:"internet_daily"`
	ContactlessDaily decimal.Decimal `json:"contactless_daily"`
}

// CardFees holds the fee fields fixed at card creation.
type CardFees struct {
	WithdrawalDomestic decimal.Decimal `json:"withdrawal_domestic"`
	WithdrawalAbroad   decimal.Decimal `json:"withdrawal_abroad"`
	Maintenance        decimal.Decimal `json:"maintenance"`
}

// PaymentCard represents a payment card attached 1:1 to a BankAccount.
//
// Secrets never persist in plaintext: the PIN and the 3-digit verification
// value are stored as bcrypt hashes, and the 16-digit card number is stored
// as a deterministic digest (for uniqueness checks and lookup) next to a
// masked display form.
type PaymentCard struct {
	ID               uuid.UUID  `json:"id"`
	AccountID        uuid.UUID  `json:"account_id"`
	HolderFirstName  string     `json:"holder_first_name"`
	HolderLastName   string     `json:"holder_last_name"`
	ExpiresAt        time.Time  `json:"expires_at"`
	Status           CardStatus `json:"status"`
	PINHash          string     `json:"-"`
	NumberMasked     string     `json:"number_masked"`
	NumberHash       string     `json:"-"`
	VerificationHash string     `json:"-"`

	Limits CardLimits `json:"limits"`
	Fees   CardFees   `json:"fees"`

	// MinTransactions is the minimum number of card transactions expected
	// per billing period before the maintenance fee applies.
	MinTransactions int `json:"min_transactions"`

	Contactless   bool `json:"contactless"`
	MagneticStrip bool `json:"magnetic_strip"`
	DDCService    bool `json:"ddc_service"`
	Surcharge     bool `json:"surcharge"`

	// DebitActive toggles the overdraft allowance. When false, DebtBalance
	// is exactly zero; when true, 0 <= DebtBalance <= MaxDebt.
	DebitActive bool            `json:"debit_active"`
	DebtBalance decimal.Decimal `json:"debt_balance"`
	MaxDebt     decimal.Decimal `json:"max_debt"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPaymentCardParams carries the inputs for NewPaymentCard. All secret
// fields must already be hashed; plaintext never reaches the entity.
type NewPaymentCardParams struct {
	AccountID        uuid.UUID
	HolderFirstName  string
	HolderLastName   string
	ExpiresAt        time.Time
	PINHash          string
	NumberMasked     string
	NumberHash       string
	VerificationHash string
	Limits           CardLimits
	Fees             CardFees
	MinTransactions  int
	DebitActive      bool
	DebtBalance      decimal.Decimal
	MaxDebt          decimal.Decimal
}

// NewPaymentCard creates a new PaymentCard in status NotActivated.
// It generates a new UUID for the card ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewPaymentCard(p NewPaymentCardParams) (*PaymentCard, error) {
	now := time.Now().UTC()
	card := &PaymentCard{
		ID:               uuid.New(),
		AccountID:        p.AccountID,
		HolderFirstName:  p.HolderFirstName,
		HolderLastName:   p.HolderLastName,
		ExpiresAt:        p.ExpiresAt,
		Status:           CardStatusNotActivated,
		PINHash:          p.PINHash,
		NumberMasked:     p.NumberMasked,
		NumberHash:       p.NumberHash,
		VerificationHash: p.VerificationHash,
		Limits:           p.Limits,
		Fees:             p.Fees,
		MinTransactions:  p.MinTransactions,
		DebitActive:      p.DebitActive,
		DebtBalance:      p.DebtBalance,
		MaxDebt:          p.MaxDebt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if !card.DebitActive {
		card.DebtBalance = decimal.Zero
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the PaymentCard satisfies every invariant.
// Returns an error describing the first violated invariant.
func (c *PaymentCard) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCardID
	}

	if c.AccountID == uuid.Nil {
		return ErrEmptyCardAccountID
	}

	if c.HolderFirstName == "" || c.HolderLastName == "" {
		return ErrEmptyCardHolder
	}

	if c.ExpiresAt.IsZero() {
		return ErrZeroCardExpiry
	}

	if !isValidCardStatus(c.Status) {
		return fmt.Errorf("%w: %q", ErrUnknownCardStatus, string(c.Status))
	}

	if c.PINHash == "" {
		return ErrEmptyCardPINHash
	}

	if c.NumberHash == "" {
		return ErrEmptyCardNumberHash
	}

	if c.VerificationHash == "" {
		return ErrEmptyVerificationHash
	}

	for _, limit := range []decimal.Decimal{
		c.Limits.PaymentDaily,
		c.Limits.WithdrawalDaily,
		c.Limits.InternetDaily,
		c.Limits.ContactlessDaily,
	} {
		if !isValidAmount(limit) {
			return ErrInvalidLimitScale
		}
	}

	for _, fee := range []decimal.Decimal{
		c.Fees.WithdrawalDomestic,
		c.Fees.WithdrawalAbroad,
		c.Fees.Maintenance,
	} {
		if !isValidAmount(fee) {
			return ErrInvalidFee
		}
	}

	if !c.MaxDebt.IsPositive() || c.MaxDebt.Exponent() < -2 {
		return ErrInvalidMaxDebt
	}

	if c.DebitActive {
		if c.DebtBalance.IsNegative() || c.DebtBalance.GreaterThan(c.MaxDebt) {
			return ErrDebtBalanceInconsistent
		}
	} else if !c.DebtBalance.IsZero() {
		return ErrDebtBalanceInconsistent
	}

	return nil
}

// isValidAmount reports whether d is non-negative with at most
// 2 decimal places.
func isValidAmount(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Exponent() >= -2
}
