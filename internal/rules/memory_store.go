package rules

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/domain"
)

// MemoryStore is an in-memory implementation of Repository.
type MemoryStore struct {
	mu    sync.RWMutex
	rules map[uuid.UUID]RuleDefinition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rules: make(map[uuid.UUID]RuleDefinition)}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (RuleDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return RuleDefinition{}, domain.NewNotFoundError("rule definition", id.String())
	}
	return r, nil
}

func (s *MemoryStore) List(ctx context.Context, usageCategory string) ([]RuleDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RuleDefinition, 0, len(s.rules))
	for _, r := range s.rules {
		if usageCategory != "" && r.UsageCategory != usageCategory {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryStore) Insert(ctx context.Context, r RuleDefinition) (RuleDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, exists := s.rules[r.ID]; exists {
		return RuleDefinition{}, domain.NewAlreadyExistsError("rule definition", r.ID.String())
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.rules[r.ID] = r
	return r, nil
}

func (s *MemoryStore) Update(ctx context.Context, r RuleDefinition) (RuleDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[r.ID]
	if !ok {
		return RuleDefinition{}, domain.NewNotFoundError("rule definition", r.ID.String())
	}
	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	s.rules[r.ID] = r
	return r, nil
}
