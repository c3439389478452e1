package taskstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/samber/lo"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/migrator"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/wallet"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
)

// identitySuffixLen is the length of a hex address without its 0x prefix.
const identitySuffixLen = 40

// ErrReverseTransition is returned when asked to move a completed task back to
// pending. Only ResetAll does that.
var ErrReverseTransition = errors.New("completed task cannot go back to pending")

// IdentityResolver maps a secret key to its canonical wallet identity.
type IdentityResolver interface {
	Identity(secretKey string) (string, error)
}

// Entry is one row of ListAll.
type Entry struct {
	Identity string
	Ledger   *model.WalletLedger
}

// LedgerOption sets the optional metadata of a ledger written by SetLedger.
type LedgerOption func(*model.WalletLedger)

func WithWalletNumber(n int) LedgerOption {
	return func(l *model.WalletLedger) { l.WalletNumber = n }
}

func WithName(name string) LedgerOption {
	return func(l *model.WalletLedger) { l.Name = name }
}

func WithToken(token string) LedgerOption {
	return func(l *model.WalletLedger) { l.Token = token }
}

// WithStatus is a hint only: the stored status always follows the tasks.
func WithStatus(status model.Status) LedgerOption {
	return func(l *model.WalletLedger) { l.Status = status }
}

// Store is the durable per-wallet task ledger. Every operation re-reads the
// backend, so separate processes sharing a store see each other's writes;
// within one process operations are serialized.
type Store struct {
	backend  Backend
	resolver IdentityResolver
	migrator *migrator.Migrator
	logger   sdklogging.Logger

	mu sync.Mutex
}

// New wires a store. m may be nil, in which case legacy documents are served
// as they are.
func New(backend Backend, resolver IdentityResolver, m *migrator.Migrator, log sdklogging.Logger) *Store {
	return &Store{
		backend:  backend,
		resolver: resolver,
		migrator: m,
		logger:   logger.EnsureLogger(log),
	}
}

func (s *Store) Backend() Backend {
	return s.backend
}

func (s *Store) Close() error {
	return s.backend.Close()
}

// load reads and, when needed, migrates the persisted document. Corrupt data
// reads as an empty store; the next write replaces it.
func (s *Store) load(ctx context.Context) (*model.Document, error) {
	doc, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrCorruptStore) {
			s.logger.Error("Ledger store unreadable, treating as empty", "store", s.backend.Describe(), "error", err)
			return model.NewDocument(), nil
		}
		return nil, err
	}
	if doc == nil {
		return model.NewDocument(), nil
	}

	if s.migrator == nil {
		return doc, nil
	}

	changed, err := s.migrator.Run(ctx, doc)
	if err != nil {
		s.logger.Error("Ledger migration failed, serving store unmigrated", "store", s.backend.Describe(), "error", err)
		return doc, nil
	}
	if changed {
		if err := s.write(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to persist migrated ledger: %w", err)
		}
	}
	return doc, nil
}

func (s *Store) write(ctx context.Context, doc *model.Document) error {
	// a store still holding legacy keys keeps its old version so the
	// migration is retried
	if doc.Version > model.SchemaLegacy && lo.SomeBy(lo.Keys(doc.Wallets), wallet.IsLegacyKey) {
		doc.Version = model.SchemaLegacy
	}
	return s.backend.Write(ctx, doc)
}

// Load returns a copy of every ledger in the store.
func (s *Store) Load(ctx context.Context) (model.Ledgers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Wallets.Clone(), nil
}

// Save replaces the whole mapping. Migration history is carried over.
func (s *Store) Save(ctx context.Context, ledgers model.Ledgers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.NewDocument()
	if current, err := s.backend.Read(ctx); err == nil && current != nil {
		doc.Migrations = current.Migrations
	}
	doc.Wallets = ledgers.Clone()
	normalize(doc)
	return s.write(ctx, doc)
}

// GetLedger returns the ledger of identity, or an empty pending ledger.
func (s *Store) GetLedger(ctx context.Context, identity string) (*model.WalletLedger, error) {
	_, ledger, err := s.Lookup(ctx, identity)
	return ledger, err
}

// Lookup is GetLedger that also returns the stored key the ledger was found
// under, empty when nothing matched.
func (s *Store) Lookup(ctx context.Context, identity string) (string, *model.WalletLedger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return "", nil, err
	}

	key, ok := match(doc.Wallets, identity)
	if !ok {
		return "", model.EmptyLedger(), nil
	}
	return key, doc.Wallets[key].Clone(), nil
}

// match finds identity exactly, else by a case-insensitive suffix match of its
// last 40 characters against the stored keys in sorted order.
func match(wallets model.Ledgers, identity string) (string, bool) {
	if _, ok := wallets[identity]; ok {
		return identity, true
	}

	needle := strings.ToLower(identity)
	if len(needle) > identitySuffixLen {
		needle = needle[len(needle)-identitySuffixLen:]
	}
	if needle == "" {
		return "", false
	}

	keys := lo.Keys(wallets)
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasSuffix(strings.ToLower(key), needle) {
			return key, true
		}
	}
	return "", false
}

// SetLedger replaces the ledger of identity wholesale.
func (s *Store) SetLedger(ctx context.Context, identity string, tasks []model.TaskRecord, opts ...LedgerOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	ledger := &model.WalletLedger{
		Tasks:  append([]model.TaskRecord{}, tasks...),
		Status: model.StatusPending,
	}
	for _, opt := range opts {
		opt(ledger)
	}
	ledger.Refresh()

	doc.Wallets[identity] = ledger
	return s.write(ctx, doc)
}

// UpdateTaskStatus sets the status of one task and re-derives the wallet
// status. Unknown identities and tasks are ignored.
func (s *Store) UpdateTaskStatus(ctx context.Context, identity, taskName string, status model.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid task status %q", status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return err
	}

	ledger, ok := doc.Wallets[identity]
	if !ok {
		return nil
	}
	record := ledger.Find(taskName)
	if record == nil {
		return nil
	}
	if record.Status == model.StatusCompleted && status == model.StatusPending {
		return fmt.Errorf("%w: %s/%s", ErrReverseTransition, identity, taskName)
	}

	if record.Status == status {
		return nil
	}
	record.Status = status
	ledger.Refresh()

	return s.write(ctx, doc)
}

// ResetAll replaces the store with a fresh pending ledger per wallet and
// returns how many wallets were assigned.
func (s *Store) ResetAll(ctx context.Context, wallets []model.Wallet, taskNames []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := model.NewDocument()
	if current, err := s.backend.Read(ctx); err == nil && current != nil {
		doc.Migrations = current.Migrations
	}

	for i, w := range wallets {
		identity, err := s.resolver.Identity(w.PrivateKey)
		if err != nil {
			s.logger.Warn("Skipping wallet with invalid key", "position", i+1, "error", err)
			continue
		}
		doc.Wallets[identity] = newLedger(taskNames, i+1, w)
	}

	if err := s.write(ctx, doc); err != nil {
		return 0, err
	}
	return len(doc.Wallets), nil
}

// AddMissing assigns taskNames to wallets that have no tasks yet and returns
// how many were added. Existing ledgers are left alone.
func (s *Store) AddMissing(ctx context.Context, wallets []model.Wallet, taskNames []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	for i, w := range wallets {
		identity, err := s.resolver.Identity(w.PrivateKey)
		if err != nil {
			s.logger.Warn("Skipping wallet with invalid key", "position", i+1, "error", err)
			continue
		}
		if key, ok := match(doc.Wallets, identity); ok && len(doc.Wallets[key].Tasks) > 0 {
			continue
		}
		doc.Wallets[identity] = newLedger(taskNames, i+1, w)
		added++
	}

	if added == 0 {
		return 0, nil
	}
	if err := s.write(ctx, doc); err != nil {
		return 0, err
	}
	return added, nil
}

// ListAll returns every ledger ordered by wallet number, then identity.
func (s *Store) ListAll(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	entries := lo.MapToSlice(doc.Wallets, func(identity string, ledger *model.WalletLedger) Entry {
		return Entry{Identity: identity, Ledger: ledger.Clone()}
	})
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Ledger.WalletNumber != b.Ledger.WalletNumber {
			return a.Ledger.WalletNumber < b.Ledger.WalletNumber
		}
		return a.Identity < b.Identity
	})
	return entries, nil
}

func newLedger(taskNames []string, walletNumber int, w model.Wallet) *model.WalletLedger {
	return &model.WalletLedger{
		Tasks:        model.NewTaskRecords(taskNames),
		Status:       model.StatusPending,
		WalletNumber: walletNumber,
		Name:         w.Name,
		Token:        w.Token,
	}
}
