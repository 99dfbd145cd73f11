package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pwalczak/cardbank/internal/config"
	"github.com/pwalczak/cardbank/internal/domain"
	"github.com/pwalczak/cardbank/internal/domain/money"
	"github.com/pwalczak/cardbank/internal/service/secret"
	"github.com/pwalczak/cardbank/internal/store"
)

// fakeHasher is a transparent Hasher for tests: the "hash" is the plaintext
// with a marker prefix, so assertions can check exactly which secret landed
// on the card without bcrypt cost.
type fakeHasher struct{}

func (fakeHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (fakeHasher) Verify(plain, hash string) bool { return hash == "hashed:"+plain }

// scriptedNumberSource pops pre-scripted digit strings and falls back to a
// deterministic counter once the script runs out.
type scriptedNumberSource struct {
	script  []string
	counter int
}

func (s *scriptedNumberSource) Digits(n int) string {
	if len(s.script) > 0 {
		next := s.script[0]
		s.script = s.script[1:]
		return next
	}
	s.counter++
	return fmt.Sprintf("%0*d", n, s.counter)
}

// noopSleeper skips the activation delay and records that it ran.
type noopSleeper struct {
	calls int
}

func (s *noopSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls++
	return ctx.Err()
}

// scriptedPrompter implements Prompter over pre-scripted raw inputs. Like
// the console implementation it owns the re-prompt loop: raw entries that
// fail the relevant validator are consumed and skipped, and an exhausted
// script reads as EOF.
type scriptedPrompter struct {
	pins    []string
	limits  []string
	debts   []string
	bools   []bool
	notices []string
	shown   []*domain.PaymentCard
}

func (p *scriptedPrompter) PromptPIN(ctx context.Context, label string) (string, error) {
	for len(p.pins) > 0 {
		raw := p.pins[0]
		p.pins = p.pins[1:]
		if secret.ValidatePIN(raw) != nil {
			continue
		}
		return raw, nil
	}
	return "", io.EOF
}

func (p *scriptedPrompter) PromptLimit(ctx context.Context, label string) (decimal.Decimal, error) {
	for len(p.limits) > 0 {
		raw := p.limits[0]
		p.limits = p.limits[1:]
		d, err := money.ParseLimit(raw)
		if err != nil {
			continue
		}
		return d, nil
	}
	return decimal.Zero, io.EOF
}

func (p *scriptedPrompter) PromptDebt(ctx context.Context, label string, maxDebt decimal.Decimal) (decimal.Decimal, error) {
	for len(p.debts) > 0 {
		raw := p.debts[0]
		p.debts = p.debts[1:]
		d, err := money.ParseDebt(raw, maxDebt)
		if err != nil {
			continue
		}
		return d, nil
	}
	return decimal.Zero, io.EOF
}

func (p *scriptedPrompter) PromptBool(ctx context.Context, label string) (bool, error) {
	if len(p.bools) == 0 {
		return false, io.EOF
	}
	next := p.bools[0]
	p.bools = p.bools[1:]
	return next, nil
}

func (p *scriptedPrompter) Notice(msg string) { p.notices = append(p.notices, msg) }

func (p *scriptedPrompter) ShowCard(card *domain.PaymentCard) { p.shown = append(p.shown, card) }

// noticed reports whether msg was emitted through Notice.
func (p *scriptedPrompter) noticed(msg string) bool {
	for _, n := range p.notices {
		if n == msg {
			return true
		}
	}
	return false
}

// fakeCardStore is an in-memory CardStore. Reads and writes copy the card
// struct, so service-side mutations only become visible through Update, the
// same visibility rule the real store enforces.
type fakeCardStore struct {
	mu      sync.Mutex
	cards   map[uuid.UUID]domain.PaymentCard
	updates int
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]domain.PaymentCard)}
}

func (s *fakeCardStore) Create(ctx context.Context, card *domain.PaymentCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.cards {
		if existing.NumberHash == card.NumberHash {
			return store.ErrCardNumberExists
		}
	}
	s.cards[card.ID] = *card
	return nil
}

func (s *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return &card, nil
}

func (s *fakeCardStore) GetByNumberHash(ctx context.Context, numberHash string) (*domain.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range s.cards {
		if card.NumberHash == numberHash {
			card := card
			return &card, nil
		}
	}
	return nil, store.ErrCardNotFound
}

func (s *fakeCardStore) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]*domain.PaymentCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.PaymentCard
	for _, card := range s.cards {
		if card.AccountID == accountID {
			card := card
			out = append(out, &card)
		}
	}
	return out, nil
}

func (s *fakeCardStore) Update(ctx context.Context, card *domain.PaymentCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return store.ErrCardNotFound
	}
	s.cards[card.ID] = *card
	s.updates++
	return nil
}

func (s *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore { return s }

// mustGet returns the stored copy of the card, failing the test otherwise.
func (s *fakeCardStore) mustGet(id uuid.UUID) domain.PaymentCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[id]
	if !ok {
		panic("card not in fake store: " + id.String())
	}
	return card
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]domain.User)}
}

func (s *fakeUserStore) Create(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return store.ErrEmailExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &user, nil
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			user := user
			return &user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

// fakeAccountStore is an in-memory AccountStore.
type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]domain.BankAccount
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{accounts: make(map[uuid.UUID]domain.BankAccount)}
}

func (s *fakeAccountStore) Create(ctx context.Context, account *domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Number == account.Number {
			return store.ErrDuplicate
		}
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *fakeAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &account, nil
}

func (s *fakeAccountStore) GetByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.BankAccount
	for _, account := range s.accounts {
		if account.OwnerID == ownerID {
			account := account
			out = append(out, &account)
		}
	}
	return out, nil
}

func (s *fakeAccountStore) Update(ctx context.Context, account *domain.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.ID]; !ok {
		return store.ErrAccountNotFound
	}
	s.accounts[account.ID] = *account
	return nil
}

func (s *fakeAccountStore) WithTx(tx *sql.Tx) store.AccountStore { return s }

// discardLogger is a slog.Logger that drops everything.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testCardDefaults mirror the shipped configuration defaults.
func testCardDefaults() CardDefaults {
	return CardDefaults{
		MaxDebt: decimal.RequireFromString("500.00"),
		Fees: domain.CardFees{
			WithdrawalDomestic: decimal.RequireFromString("5.00"),
			WithdrawalAbroad:   decimal.RequireFromString("10.00"),
			Maintenance:        decimal.RequireFromString("10.00"),
		},
		MinTransactions:     5,
		ActivationDelayBase: 0,
	}
}

// configFixture builds a CardConfig with the given monetary strings.
func configFixture(maxDebt, feeDomestic, feeAbroad, feeMaintenance string) config.CardConfig {
	return config.CardConfig{
		MaxDebt:               maxDebt,
		FeeWithdrawalDomestic: feeDomestic,
		FeeWithdrawalAbroad:   feeAbroad,
		FeeMaintenance:        feeMaintenance,
		MinTransactions:       5,
		ActivationDelayBaseMS: 1000,
	}
}

// newTestCardService wires a cardServiceImpl against in-memory fakes. The
// transaction runner degrades to calling the function directly; the fakes
// ignore the nil *sql.Tx.
func newTestCardService(cards *fakeCardStore, accounts *fakeAccountStore, users *fakeUserStore, numbers secret.NumberSource) *cardServiceImpl {
	if numbers == nil {
		numbers = &scriptedNumberSource{}
	}
	return &cardServiceImpl{
		cards:    cards,
		accounts: accounts,
		users:    users,
		hasher:   fakeHasher{},
		numbers:  numbers,
		sleeper:  &noopSleeper{},
		defaults: testCardDefaults(),
		logger:   discardLogger(),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
	}
}
