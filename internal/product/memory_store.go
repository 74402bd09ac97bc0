package product

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/domain"
)

// MemoryStore is an in-memory implementation of Repository, seeded at
// construction. Used by tests and DSN-less local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

func NewMemoryStore(seed ...Product) *MemoryStore {
	s := &MemoryStore{products: make(map[uuid.UUID]Product)}
	for _, p := range seed {
		s.products[p.ID] = p
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return Product{}, domain.NewNotFoundError("product", id.String())
	}
	return p, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Put inserts or replaces a product (test seeding helper).
func (s *MemoryStore) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}
