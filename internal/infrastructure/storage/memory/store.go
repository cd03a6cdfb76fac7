// Package memory provides an in-process transactional store implementing every
// repository interface. Transactions are serialized by a single writer lock and
// rolled back by restoring a copy of the state taken at begin.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"stockerp/internal/core/entity"
	"stockerp/internal/core/id"
	"stockerp/internal/core/tx"
	"stockerp/internal/domain/access"
	"stockerp/internal/domain/documents"
	"stockerp/internal/domain/items"
	"stockerp/internal/domain/pricing"
)

// Compile-time check that Store implements tx.Manager interface.
var _ tx.Manager = (*Store)(nil)

type state struct {
	items     map[id.ID]*items.Item
	itemCodes map[string]id.ID

	stock map[string]entity.WarehouseStock
	txns  []entity.StockTransaction

	docs       map[id.ID]*documents.Document
	docNumbers map[string]id.ID
	audit      map[id.ID][]documents.AuditEntry

	roles       map[string]access.Role
	assignments map[string]access.Assignment
	overrides   map[string][]access.Override

	priceLists map[id.ID]*pricing.PriceList
	priceCodes map[string]id.ID
	tiers      []pricing.Tier
}

func newState() *state {
	return &state{
		items:       make(map[id.ID]*items.Item),
		itemCodes:   make(map[string]id.ID),
		stock:       make(map[string]entity.WarehouseStock),
		docs:        make(map[id.ID]*documents.Document),
		docNumbers:  make(map[string]id.ID),
		audit:       make(map[id.ID][]documents.AuditEntry),
		roles:       make(map[string]access.Role),
		assignments: make(map[string]access.Assignment),
		overrides:   make(map[string][]access.Override),
		priceLists:  make(map[id.ID]*pricing.PriceList),
		priceCodes:  make(map[string]id.ID),
	}
}

// clone copies everything a transaction may mutate.
func (st *state) clone() *state {
	c := &state{
		items:       make(map[id.ID]*items.Item, len(st.items)),
		itemCodes:   maps.Clone(st.itemCodes),
		stock:       maps.Clone(st.stock),
		txns:        slices.Clone(st.txns),
		docs:        make(map[id.ID]*documents.Document, len(st.docs)),
		docNumbers:  maps.Clone(st.docNumbers),
		audit:       make(map[id.ID][]documents.AuditEntry, len(st.audit)),
		roles:       maps.Clone(st.roles),
		assignments: maps.Clone(st.assignments),
		overrides:   make(map[string][]access.Override, len(st.overrides)),
		priceLists:  make(map[id.ID]*pricing.PriceList, len(st.priceLists)),
		priceCodes:  maps.Clone(st.priceCodes),
		tiers:       slices.Clone(st.tiers),
	}
	for k, v := range st.items {
		cp := *v
		c.items[k] = &cp
	}
	for k, v := range st.docs {
		c.docs[k] = v.Clone()
	}
	for k, v := range st.audit {
		c.audit[k] = slices.Clone(v)
	}
	for k, v := range st.overrides {
		c.overrides[k] = slices.Clone(v)
	}
	for k, v := range st.priceLists {
		cp := *v
		c.priceLists[k] = &cp
	}
	return c
}

// Store is the in-memory persistent store.
type Store struct {
	mu sync.RWMutex
	st *state
}

// New creates an empty store.
func New() *Store {
	return &Store{st: newState()}
}

type (
	txKey       struct{}
	readOnlyKey struct{}
)

// RunInTransaction executes fn holding the writer lock.
// Nested calls reuse the running transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	if s.inReadOnly(ctx) {
		return tx.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	backup := s.st.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.st = backup
		return err
	}
	return nil
}

// ReadOnly executes fn holding the reader lock, so every read inside fn sees
// the same committed state. Writes inside fn fail with tx.ErrReadOnly.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) || s.inReadOnly(ctx) {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(context.WithValue(ctx, readOnlyKey{}, s))
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

func (s *Store) inReadOnly(ctx context.Context) bool {
	owner, ok := ctx.Value(readOnlyKey{}).(*Store)
	return ok && owner == s
}

// read runs fn against committed state, or the running transaction's state.
func (s *Store) read(ctx context.Context, fn func(st *state) error) error {
	if s.inTx(ctx) || s.inReadOnly(ctx) {
		return fn(s.st)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

// write runs fn inside a transaction, starting one when needed.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	return s.RunInTransaction(ctx, func(context.Context) error {
		return fn(s.st)
	})
}

// Ledger returns the stock ledger repository.
func (s *Store) Ledger() *LedgerRepo { return &LedgerRepo{s: s} }

// Items returns the item repository.
func (s *Store) Items() *ItemRepo { return &ItemRepo{s: s} }

// Documents returns the document repository.
func (s *Store) Documents() *DocumentRepo { return &DocumentRepo{s: s} }

// Access returns the role and assignment repository.
func (s *Store) Access() *AccessRepo { return &AccessRepo{s: s} }

// Pricing returns the price list repository.
func (s *Store) Pricing() *PricingRepo { return &PricingRepo{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
