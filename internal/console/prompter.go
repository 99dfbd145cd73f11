// Package console implements the line-oriented interactive shell: the
// prompter with its blocking re-prompt loops and the session menu.
//
// Every retry loop lives here, at the outermost interactive layer. The
// loops call the pure validators (money parse functions, PIN syntax check)
// and keep asking until input validates, so the core services stay
// testable without simulating console I/O.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/domain/money"
	"github.com/pwalczak/cardbank/internal/service"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/shopspring/decimal"
)

// Prompter reads and validates console input line by line.
// It implements service.Prompter.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter over the given reader and writer,
// typically os.Stdin and os.Stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// Ensure Prompter implements service.Prompter
var _ service.Prompter = (*Prompter)(nil)

// PromptPIN implements service.Prompter.PromptPIN
// It re-prompts until the input is exactly 4 digits.
func (p *Prompter) PromptPIN(ctx context.Context, label string) (string, error) {
	for {
		raw, err := p.readLine(ctx, label)
		if err != nil {
			return "", err
		}

		if err := secret.ValidatePIN(raw); err != nil {
			p.Notice(err.Error())
			continue
		}
		return raw, nil
	}
}

// PromptLimit implements service.Prompter.PromptLimit
// It re-prompts until money.ParseLimit accepts the input.
func (p *Prompter) PromptLimit(ctx context.Context, label string) (decimal.Decimal, error) {
	for {
		raw, err := p.readLine(ctx, label)
		if err != nil {
			return decimal.Decimal{}, err
		}

		amount, err := money.ParseLimit(raw)
		if err != nil {
			p.Notice(err.Error())
			continue
		}
		return amount, nil
	}
}

// PromptDebt implements service.Prompter.PromptDebt
// It re-prompts until money.ParseDebt accepts the input.
func (p *Prompter) PromptDebt(ctx context.Context, label string, maxDebt decimal.Decimal) (decimal.Decimal, error) {
	bounded := fmt.Sprintf("%s (0 - %s)", label, money.Format(maxDebt))
	for {
		raw, err := p.readLine(ctx, bounded)
		if err != nil {
			return decimal.Decimal{}, err
		}

		amount, err := money.ParseDebt(raw, maxDebt)
		if err != nil {
			p.Notice(err.Error())
			continue
		}
		return amount, nil
	}
}

// PromptBool implements service.Prompter.PromptBool
// It accepts y/yes/n/no (case-insensitive) and re-prompts on anything else.
func (p *Prompter) PromptBool(ctx context.Context, label string) (bool, error) {
	for {
		raw, err := p.readLine(ctx, label+" [y/n]")
		if err != nil {
			return false, err
		}

		switch strings.ToLower(raw) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			p.Notice("please answer y or n")
		}
	}
}

// PromptTransferAmount reads a transfer amount for deposits/withdrawals,
// re-prompting until money.ParseTransferAmount accepts the input.
func (p *Prompter) PromptTransferAmount(ctx context.Context, label string) (decimal.Decimal, error) {
	for {
		raw, err := p.readLine(ctx, label)
		if err != nil {
			return decimal.Decimal{}, err
		}

		amount, err := money.ParseTransferAmount(raw)
		if err != nil {
			p.Notice(err.Error())
			continue
		}
		return amount, nil
	}
}

// PromptLine reads one raw line with no validation.
func (p *Prompter) PromptLine(ctx context.Context, label string) (string, error) {
	return p.readLine(ctx, label)
}

// Notice implements service.Prompter.Notice
func (p *Prompter) Notice(msg string) {
	fmt.Fprintln(p.out, msg)
}

// ShowCard implements service.Prompter.ShowCard
// It prints the labeled card block: a title line followed by field values
// in a fixed order.
func (p *Prompter) ShowCard(card *domain.PaymentCard) {
	fmt.Fprintln(p.out, "--- Payment card ---")
	fmt.Fprintf(p.out, "Number:             %s\n", card.NumberMasked)
	fmt.Fprintf(p.out, "Holder:             %s %s\n", card.HolderFirstName, card.HolderLastName)
	fmt.Fprintf(p.out, "Expires:            %s\n", card.ExpiresAt.Format("01/2006"))
	fmt.Fprintf(p.out, "Status:             %s\n", card.Status)
	fmt.Fprintf(p.out, "Payment limit:      %s\n", money.Format(card.Limits.PaymentDaily))
	fmt.Fprintf(p.out, "Withdrawal limit:   %s\n", money.Format(card.Limits.WithdrawalDaily))
	fmt.Fprintf(p.out, "Internet limit:     %s\n", money.Format(card.Limits.InternetDaily))
	fmt.Fprintf(p.out, "Contactless limit:  %s\n", money.Format(card.Limits.ContactlessDaily))
	fmt.Fprintf(p.out, "Contactless:        %s\n", onOff(card.Contactless))
	fmt.Fprintf(p.out, "Magnetic strip:     %s\n", onOff(card.MagneticStrip))
	fmt.Fprintf(p.out, "DDC service:        %s\n", onOff(card.DDCService))
	fmt.Fprintf(p.out, "Surcharge:          %s\n", onOff(card.Surcharge))
	fmt.Fprintf(p.out, "Debit overdraft:    %s\n", onOff(card.DebitActive))
	if card.DebitActive {
		fmt.Fprintf(p.out, "Debt balance:       %s\n", money.Format(card.DebtBalance))
	}
	fmt.Fprintf(p.out, "Max debt:           %s\n", money.Format(card.MaxDebt))
}

// readLine prints the prompt label and blocks for one line of input.
// It returns the line with surrounding whitespace trimmed.
func (p *Prompter) readLine(ctx context.Context, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// onOff renders a toggle for the card block.
func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
