package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testAccountNumber is a syntactically valid 26-digit account number.
var testAccountNumber = strings.Repeat("12", 13)

func TestNewBankAccount(t *testing.T) {
	t.Parallel() // Enable parallel execution

	testCases := []struct {
		name    string
		ownerID uuid.UUID
		number  string
		wantErr error
	}{
		{name: "valid account", ownerID: uuid.New(), number: testAccountNumber},
		{name: "nil owner", ownerID: uuid.Nil, number: testAccountNumber, wantErr: ErrEmptyAccountOwner},
		{name: "number too short", ownerID: uuid.New(), number: "123", wantErr: ErrInvalidAccountNum},
		{name: "number too long", ownerID: uuid.New(), number: testAccountNumber + "9", wantErr: ErrInvalidAccountNum},
		{name: "number with letters", ownerID: uuid.New(), number: strings.Repeat("a", 26), wantErr: ErrInvalidAccountNum},
		{name: "empty number", ownerID: uuid.New(), number: "", wantErr: ErrInvalidAccountNum},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			account, err := NewBankAccount(tc.ownerID, tc.number)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, account.Balance.IsZero(), "fresh account must start at zero balance")
		})
	}
}

func TestBankAccountDeposit(t *testing.T) {
	t.Parallel() // Enable parallel execution

	account, err := NewBankAccount(uuid.New(), testAccountNumber)
	require.NoError(t, err)

	require.NoError(t, account.Deposit(decimal.RequireFromString("100.50")))
	assert.Equal(t, "100.50", account.Balance.StringFixed(2))

	assert.ErrorIs(t, account.Deposit(decimal.Zero), ErrNonPositiveMovement)
	assert.ErrorIs(t, account.Deposit(decimal.RequireFromString("-5")), ErrNonPositiveMovement)
	assert.Equal(t, "100.50", account.Balance.StringFixed(2), "failed deposit must not move the balance")
}

func TestBankAccountWithdraw(t *testing.T) {
	t.Parallel() // Enable parallel execution

	account, err := NewBankAccount(uuid.New(), testAccountNumber)
	require.NoError(t, err)
	require.NoError(t, account.Deposit(decimal.RequireFromString("50.00")))

	require.NoError(t, account.Withdraw(decimal.RequireFromString("20.25")))
	assert.Equal(t, "29.75", account.Balance.StringFixed(2))

	assert.ErrorIs(t, account.Withdraw(decimal.RequireFromString("29.76")), ErrInsufficientFunds)
	assert.ErrorIs(t, account.Withdraw(decimal.Zero), ErrNonPositiveMovement)
	assert.Equal(t, "29.75", account.Balance.StringFixed(2), "failed withdrawal must not move the balance")

	// Draining the account exactly to zero is allowed.
	require.NoError(t, account.Withdraw(decimal.RequireFromString("29.75")))
	assert.True(t, account.Balance.IsZero())
}
