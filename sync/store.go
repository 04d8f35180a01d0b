package sync

import (
	"context"
	stdsync "sync"

	"github.com/keymarket/g2a-connect/g2a"
)

// Store is the opaque persistence collaborator. The core only needs
// read-by-id and upsert; schema is the host application's concern.
type Store interface {
	// GetProduct returns the stored copy and whether one exists.
	GetProduct(ctx context.Context, id string) (*g2a.Product, bool, error)

	// UpsertProduct creates or replaces the stored copy.
	UpsertProduct(ctx context.Context, p g2a.Product) error
}

// MemoryStore is an in-memory Store for tests and small deployments.
type MemoryStore struct {
	mu       stdsync.RWMutex
	products map[string]g2a.Product
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: make(map[string]g2a.Product)}
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*g2a.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, false, nil
	}
	return &p, true, nil
}

func (s *MemoryStore) UpsertProduct(_ context.Context, p g2a.Product) error {
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored products.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

var _ Store = (*MemoryStore)(nil)

// Applier writes fetched partner products into the store, resolving
// each against any existing local copy first.
type Applier struct {
	store    Store
	resolver *Resolver
	strategy Strategy
}

// NewApplier creates an applier using the given strategy for existing
// records. New records are written as-is.
func NewApplier(store Store, resolver *Resolver, strategy Strategy) *Applier {
	if resolver == nil {
		resolver = NewResolver(MergePolicy{})
	}
	return &Applier{store: store, resolver: resolver, strategy: strategy}
}

// Apply upserts every product. Conflicts the strategy refuses to
// resolve are collected and returned alongside the applied count; they
// do not abort the remaining products.
func (a *Applier) Apply(ctx context.Context, products []g2a.Product) (int, []error) {
	applied := 0
	var conflicts []error

	for _, p := range products {
		existing, ok, err := a.store.GetProduct(ctx, p.ID)
		if err != nil {
			conflicts = append(conflicts, err)
			continue
		}

		resolved := p
		if ok {
			res, err := a.resolver.ResolveProduct(p, *existing, a.strategy)
			if err != nil {
				conflicts = append(conflicts, err)
				continue
			}
			resolved = res.Resolved
		}

		if err := a.store.UpsertProduct(ctx, resolved); err != nil {
			conflicts = append(conflicts, err)
			continue
		}
		applied++
	}
	return applied, conflicts
}
