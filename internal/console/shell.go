package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/domain/cardstate"
	"github.com/pwalczak/cardbank/internal/domain/money"
	"github.com/pwalczak/cardbank/internal/service"
	"github.com/pwalczak/cardbank/internal/store"
	"github.com/shopspring/decimal"
)

// Session carries the signed-in owner through the shell. It replaces any
// notion of process-wide "current user" state: whoever holds the Session
// value is the session.
type Session struct {
	User *domain.User
}

// Shell is the interactive menu loop over the services.
type Shell struct {
	prompter *Prompter
	users    service.UserService
	accounts service.AccountService
	cards    service.CardService
	logger   *slog.Logger
}

// NewShell creates a Shell over the given prompter and services.
func NewShell(
	prompter *Prompter,
	users service.UserService,
	accounts service.AccountService,
	cards service.CardService,
	log *slog.Logger,
) *Shell {
	if log == nil {
		log = slog.Default()
	}

	return &Shell{
		prompter: prompter,
		users:    users,
		accounts: accounts,
		cards:    cards,
		logger:   log.With(slog.String("component", "shell")),
	}
}

// cardOperations maps menu keys to card operations, in display order.
var cardOperations = []struct {
	key   string
	label string
	op    cardstate.Operation
}{
	{"1", "Show card", cardstate.OpShowCard},
	{"2", "Change limits", cardstate.OpChangeLimits},
	{"3", "Block temporarily", cardstate.OpBlockTemporarily},
	{"4", "Unlock", cardstate.OpUnlock},
	{"5", "Block permanently", cardstate.OpBlockPermanently},
	{"6", "Change PIN", cardstate.OpChangePIN},
	{"7", "Toggle contactless payments", cardstate.OpToggleContactless},
	{"8", "Toggle magnetic strip", cardstate.OpToggleMagneticStrip},
	{"9", "Toggle DDC service", cardstate.OpToggleDDCService},
	{"10", "Toggle surcharge", cardstate.OpToggleSurcharge},
	{"11", "Toggle debit overdraft option", cardstate.OpToggleDebitOption},
}

// Run drives the top-level menu until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	s.prompter.Notice("Welcome to cardbank")

	for {
		s.prompter.Notice("")
		s.prompter.Notice("1) Sign up  2) Sign in  0) Exit")
		choice, err := s.prompter.PromptLine(ctx, "Choose")
		if err != nil {
			return s.finish(err)
		}

		switch choice {
		case "1":
			if err := s.signUp(ctx); err != nil {
				return s.finish(err)
			}
		case "2":
			session, err := s.signIn(ctx)
			if err != nil {
				return s.finish(err)
			}
			if session == nil {
				continue
			}
			if err := s.sessionMenu(ctx, session); err != nil {
				return s.finish(err)
			}
		case "0":
			s.prompter.Notice("Goodbye")
			return nil
		default:
			s.prompter.Notice("unknown choice")
		}
	}
}

// signUp walks the registration prompts. Validation failures re-prompt the
// whole form; they never abort the shell.
func (s *Shell) signUp(ctx context.Context) error {
	for {
		email, err := s.prompter.PromptLine(ctx, "Email")
		if err != nil {
			return err
		}
		password, err := s.prompter.PromptLine(ctx, "Password")
		if err != nil {
			return err
		}
		firstName, err := s.prompter.PromptLine(ctx, "First name")
		if err != nil {
			return err
		}
		lastName, err := s.prompter.PromptLine(ctx, "Last name")
		if err != nil {
			return err
		}
		pesel, err := s.prompter.PromptLine(ctx, "PESEL")
		if err != nil {
			return err
		}

		_, err = s.users.Register(ctx, email, password, firstName, lastName, pesel)
		if err != nil {
			if isRegistrationInputError(err) {
				s.prompter.Notice(err.Error())
				continue
			}
			return err
		}

		s.prompter.Notice("registration complete, you can sign in now")
		return nil
	}
}

// signIn authenticates one email/password attempt. A nil session with a nil
// error means the credentials were rejected and the caller stays at the
// top-level menu.
func (s *Shell) signIn(ctx context.Context) (*Session, error) {
	email, err := s.prompter.PromptLine(ctx, "Email")
	if err != nil {
		return nil, err
	}
	password, err := s.prompter.PromptLine(ctx, "Password")
	if err != nil {
		return nil, err
	}

	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			s.prompter.Notice(err.Error())
			return nil, nil
		}
		return nil, err
	}

	s.prompter.Notice(fmt.Sprintf("Signed in as %s %s", user.FirstName, user.LastName))
	return &Session{User: user}, nil
}

// sessionMenu drives the signed-in menu until sign-out.
func (s *Shell) sessionMenu(ctx context.Context, session *Session) error {
	for {
		s.prompter.Notice("")
		s.prompter.Notice("1) Accounts  2) Open account  3) Deposit  4) Withdraw  5) New card  6) Card operations  0) Sign out")
		choice, err := s.prompter.PromptLine(ctx, "Choose")
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = s.listAccounts(ctx, session)
		case "2":
			_, err = s.accounts.CreateAccount(ctx, session.User.ID)
			if err == nil {
				s.prompter.Notice("account opened")
			}
		case "3":
			err = s.moveMoney(ctx, session, s.accounts.Deposit, "Amount to deposit")
		case "4":
			err = s.moveMoney(ctx, session, s.accounts.Withdraw, "Amount to withdraw")
		case "5":
			err = s.createCard(ctx, session)
		case "6":
			err = s.cardMenu(ctx, session)
		case "0":
			return nil
		default:
			s.prompter.Notice("unknown choice")
			continue
		}

		if err != nil {
			if isUserInputError(err) {
				s.prompter.Notice(err.Error())
				continue
			}
			return err
		}
	}
}

// listAccounts prints the labeled account list.
func (s *Shell) listAccounts(ctx context.Context, session *Session) error {
	accounts, err := s.accounts.ListAccounts(ctx, session.User.ID)
	if err != nil {
		return err
	}

	if len(accounts) == 0 {
		s.prompter.Notice("no accounts yet")
		return nil
	}

	s.prompter.Notice("--- Accounts ---")
	for i, account := range accounts {
		s.prompter.Notice(fmt.Sprintf("%d) %s  balance %s", i+1, account.Number, money.Format(account.Balance)))
	}
	return nil
}

// moveMoney prompts for an account and an amount, then applies fn.
func (s *Shell) moveMoney(
	ctx context.Context,
	session *Session,
	fn func(context.Context, uuid.UUID, decimal.Decimal) error,
	label string,
) error {
	account, err := s.pickAccount(ctx, session)
	if err != nil || account == nil {
		return err
	}

	amount, err := s.prompter.PromptTransferAmount(ctx, label)
	if err != nil {
		return err
	}

	if err := fn(ctx, account.ID, amount); err != nil {
		return err
	}

	s.prompter.Notice("done")
	return nil
}

// createCard picks an account and runs card creation.
func (s *Shell) createCard(ctx context.Context, session *Session) error {
	account, err := s.pickAccount(ctx, session)
	if err != nil || account == nil {
		return err
	}

	card, err := s.cards.CreateCard(ctx, account.ID, s.prompter)
	if err != nil {
		return err
	}

	s.prompter.Notice("card created")
	s.prompter.ShowCard(card)
	return nil
}

// cardMenu picks a card and dispatches operations against it until the
// user goes back.
func (s *Shell) cardMenu(ctx context.Context, session *Session) error {
	account, err := s.pickAccount(ctx, session)
	if err != nil || account == nil {
		return err
	}

	cards, err := s.cards.ListCards(ctx, account.ID)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		s.prompter.Notice("no cards on this account yet")
		return nil
	}

	card := cards[0]
	if len(cards) > 1 {
		s.prompter.Notice("--- Cards ---")
		for i, c := range cards {
			s.prompter.Notice(fmt.Sprintf("%d) %s (%s)", i+1, c.NumberMasked, c.Status))
		}
		idx, err := s.pickIndex(ctx, len(cards))
		if err != nil {
			return err
		}
		card = cards[idx]
	}

	for {
		s.prompter.Notice("")
		for _, entry := range cardOperations {
			s.prompter.Notice(fmt.Sprintf("%s) %s", entry.key, entry.label))
		}
		s.prompter.Notice("0) Back")

		choice, err := s.prompter.PromptLine(ctx, "Choose")
		if err != nil {
			return err
		}
		if choice == "0" {
			return nil
		}

		var op cardstate.Operation
		found := false
		for _, entry := range cardOperations {
			if entry.key == choice {
				op = entry.op
				found = true
				break
			}
		}
		if !found {
			s.prompter.Notice("unknown choice")
			continue
		}

		if err := s.cards.Dispatch(ctx, card.ID, op, s.prompter); err != nil {
			return err
		}
	}
}

// pickAccount lists the session's accounts and reads a choice. A nil
// account with nil error means there is nothing to pick.
func (s *Shell) pickAccount(ctx context.Context, session *Session) (*domain.BankAccount, error) {
	accounts, err := s.accounts.ListAccounts(ctx, session.User.ID)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		s.prompter.Notice("open an account first")
		return nil, nil
	}
	if len(accounts) == 1 {
		return accounts[0], nil
	}

	s.prompter.Notice("--- Accounts ---")
	for i, account := range accounts {
		s.prompter.Notice(fmt.Sprintf("%d) %s", i+1, account.Number))
	}

	idx, err := s.pickIndex(ctx, len(accounts))
	if err != nil {
		return nil, err
	}
	return accounts[idx], nil
}

// pickIndex reads a 1-based choice below n, re-prompting on bad input.
func (s *Shell) pickIndex(ctx context.Context, n int) (int, error) {
	for {
		choice, err := s.prompter.PromptLine(ctx, "Choose")
		if err != nil {
			return 0, err
		}

		var idx int
		if _, err := fmt.Sscanf(choice, "%d", &idx); err == nil && idx >= 1 && idx <= n {
			return idx - 1, nil
		}
		s.prompter.Notice("unknown choice")
	}
}

// finish maps normal end-of-input to a clean exit.
func (s *Shell) finish(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// isUserInputError reports whether err is a recoverable user mistake that
// the menu loop reports and moves past, rather than a system failure.
func isUserInputError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrNonPositiveMovement) ||
		errors.Is(err, domain.ErrValidation)
}

// isRegistrationInputError classifies registration failures that the
// sign-up form reports and retries.
func isRegistrationInputError(err error) bool {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrEmptyUserName),
		errors.Is(err, domain.ErrInvalidPESEL),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, store.ErrDuplicate):
		return true
	}
	return false
}
