package service

import (
	"context"
	"time"

	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/shopspring/decimal"
)

// Prompter is what the card lifecycle service needs from the interactive
// shell. Implementations own every blocking re-prompt retry loop: a Prompt*
// method returns only a value that already passed the relevant pure
// validator, or an error when input is exhausted or the context is
// canceled. The service itself never parses raw console input.
type Prompter interface {
	// PromptPIN reads a syntactically valid PIN (exactly 4 digits),
	// re-prompting on malformed input.
	PromptPIN(ctx context.Context, label string) (string, error)

	// PromptLimit reads a valid limit amount via money.ParseLimit,
	// re-prompting on validation failure.
	PromptLimit(ctx context.Context, label string) (decimal.Decimal, error)

	// PromptDebt reads a valid debt balance via money.ParseDebt with the
	// given ceiling, re-prompting on validation failure.
	PromptDebt(ctx context.Context, label string, maxDebt decimal.Decimal) (decimal.Decimal, error)

	// PromptBool reads a yes/no answer, re-prompting on anything else.
	PromptBool(ctx context.Context, label string) (bool, error)

	// Notice prints a single advisory line (refusals, confirmations).
	Notice(msg string)

	// ShowCard prints the labeled card block: a title line followed by
	// field values in a fixed order.
	ShowCard(card *domain.PaymentCard)
}

// Sleeper abstracts the blocking activation processing delay so tests can
// inject zero delay. Sleep must honor ctx cancellation; the delay is a
// bounded blocking wait, not a background task.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// realSleeper implements Sleeper with an interruptible timer wait.
type realSleeper struct{}

// NewSleeper creates the production Sleeper.
func NewSleeper() Sleeper {
	return realSleeper{}
}

// Sleep implements the Sleeper interface.
func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
