package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validCardParams returns a fully valid parameter set; tests mutate single
// fields to probe individual invariants.
func validCardParams() NewPaymentCardParams {
	limit := decimal.RequireFromString("1000.00")
	fee := decimal.RequireFromString("5.00")

	return NewPaymentCardParams{
		AccountID:        uuid.New(),
		HolderFirstName:  "Jan",
		HolderLastName:   "Kowalski",
		ExpiresAt:        time.Now().UTC().AddDate(5, 0, 0),
		PINHash:          "$2a$10$pinhash",
		NumberMasked:     "**** **** **** 1234",
		NumberHash:       "deadbeef",
		VerificationHash: "$2a$10$cvvhash",
		Limits: CardLimits{
			PaymentDaily:     limit,
			WithdrawalDaily:  limit,
			InternetDaily:    limit,
			ContactlessDaily: limit,
		},
		Fees: CardFees{
			WithdrawalDomestic: fee,
			WithdrawalAbroad:   fee,
			Maintenance:        fee,
		},
		MinTransactions: 5,
		MaxDebt:         decimal.RequireFromString("500.00"),
	}
}

func TestNewPaymentCard(t *testing.T) {
	t.Parallel() // Enable parallel execution

	t.Run("starts not activated", func(t *testing.T) {
		t.Parallel()
		card, err := NewPaymentCard(validCardParams())
		require.NoError(t, err)
		assert.Equal(t, CardStatusNotActivated, card.Status)
		assert.False(t, card.CreatedAt.IsZero())
		assert.Equal(t, card.CreatedAt, card.UpdatedAt)
	})

	t.Run("debt zeroed when debit inactive", func(t *testing.T) {
		t.Parallel()
		p := validCardParams()
		p.DebitActive = false
		p.DebtBalance = decimal.RequireFromString("100.00")
		card, err := NewPaymentCard(p)
		require.NoError(t, err)
		assert.True(t, card.DebtBalance.IsZero())
	})

	t.Run("debt kept when debit active", func(t *testing.T) {
		t.Parallel()
		p := validCardParams()
		p.DebitActive = true
		p.DebtBalance = decimal.RequireFromString("400.00")
		card, err := NewPaymentCard(p)
		require.NoError(t, err)
		assert.Equal(t, "400.00", card.DebtBalance.StringFixed(2))
	})
}

func TestNewPaymentCardValidation(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		mutate  func(*NewPaymentCardParams)
		wantErr error
	}{
		{
			name:    "nil account",
			mutate:  func(p *NewPaymentCardParams) { p.AccountID = uuid.Nil },
			wantErr: ErrEmptyCardAccountID,
		},
		{
			name:    "missing holder first name",
			mutate:  func(p *NewPaymentCardParams) { p.HolderFirstName = "" },
			wantErr: ErrEmptyCardHolder,
		},
		{
			name:    "missing holder last name",
			mutate:  func(p *NewPaymentCardParams) { p.HolderLastName = "" },
			wantErr: ErrEmptyCardHolder,
		},
		{
			name:    "zero expiry",
			mutate:  func(p *NewPaymentCardParams) { p.ExpiresAt = time.Time{} },
			wantErr: ErrZeroCardExpiry,
		},
		{
			name:    "missing pin hash",
			mutate:  func(p *NewPaymentCardParams) { p.PINHash = "" },
			wantErr: ErrEmptyCardPINHash,
		},
		{
			name:    "missing number hash",
			mutate:  func(p *NewPaymentCardParams) { p.NumberHash = "" },
			wantErr: ErrEmptyCardNumberHash,
		},
		{
			name:    "missing verification hash",
			mutate:  func(p *NewPaymentCardParams) { p.VerificationHash = "" },
			wantErr: ErrEmptyVerificationHash,
		},
		{
			name: "negative limit",
			mutate: func(p *NewPaymentCardParams) {
				p.Limits.InternetDaily = decimal.RequireFromString("-1.00")
			},
			wantErr: ErrInvalidLimitScale,
		},
		{
			name: "limit with three decimals",
			mutate: func(p *NewPaymentCardParams) {
				p.Limits.ContactlessDaily = decimal.RequireFromString("10.123")
			},
			wantErr: ErrInvalidLimitScale,
		},
		{
			name: "negative fee",
			mutate: func(p *NewPaymentCardParams) {
				p.Fees.Maintenance = decimal.RequireFromString("-0.01")
			},
			wantErr: ErrInvalidFee,
		},
		{
			name:    "zero max debt",
			mutate:  func(p *NewPaymentCardParams) { p.MaxDebt = decimal.Zero },
			wantErr: ErrInvalidMaxDebt,
		},
		{
			name: "debt above max with debit active",
			mutate: func(p *NewPaymentCardParams) {
				p.DebitActive = true
				p.DebtBalance = decimal.RequireFromString("500.01")
			},
			wantErr: ErrDebtBalanceInconsistent,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := validCardParams()
			tc.mutate(&p)
			_, err := NewPaymentCard(p)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPaymentCardValidateDebtConsistency(t *testing.T) {
	t.Parallel() // Enable parallel execution

	card, err := NewPaymentCard(validCardParams())
	require.NoError(t, err)

	// Debt on a card with the debit option off is corrupt state.
	card.DebitActive = false
	card.DebtBalance = decimal.RequireFromString("0.01")
	assert.ErrorIs(t, card.Validate(), ErrDebtBalanceInconsistent)

	// Exactly MaxDebt is still consistent.
	card.DebitActive = true
	card.DebtBalance = card.MaxDebt
	assert.NoError(t, card.Validate())

	card.DebtBalance = decimal.RequireFromString("-0.01")
	assert.ErrorIs(t, card.Validate(), ErrDebtBalanceInconsistent)
}

func TestParseCardStatus(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		raw     string
		want    CardStatus
		wantErr bool
	}{
		{name: "not activated", raw: "NotActivated", want: CardStatusNotActivated},
		{name: "activated", raw: "Activated", want: CardStatusActivated},
		{name: "blocked temporarily", raw: "BlockedTemporarily", want: CardStatusBlockedTemporarily},
		{name: "blocked permanently", raw: "BlockedPermanently", want: CardStatusBlockedPermanently},
		{name: "lowercase rejected", raw: "activated", wantErr: true},
		{name: "unknown rejected", raw: "Frozen", wantErr: true},
		{name: "empty rejected", raw: "", wantErr: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseCardStatus(tc.raw)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnknownCardStatus)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
