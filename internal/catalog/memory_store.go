package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtier-app/premiumservice/internal/domain"
)

// MemoryStore is an in-memory implementation of Repository.
type MemoryStore struct {
	mu   sync.RWMutex
	vars map[string]Variable
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{vars: make(map[string]Variable)}
}

func (s *MemoryStore) Get(ctx context.Context, code string) (Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vars[code]
	if !ok {
		return Variable{}, domain.NewNotFoundError("variable", code)
	}
	return v, nil
}

func (s *MemoryStore) List(ctx context.Context, category string) ([]Variable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Variable, 0, len(s.vars))
	for _, v := range s.vars {
		if category != "" && v.Category != category {
			continue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, v Variable) (Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.vars[v.Code]; exists {
		return Variable{}, domain.NewAlreadyExistsError("variable", v.Code)
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.vars[v.Code] = v
	return v, nil
}

func (s *MemoryStore) Update(ctx context.Context, v Variable) (Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.vars[v.Code]
	if !ok {
		return Variable{}, domain.NewNotFoundError("variable", v.Code)
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = time.Now().UTC()
	s.vars[v.Code] = v
	return v, nil
}
