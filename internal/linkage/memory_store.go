package linkage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/domain"
)

// MemoryStore is an in-memory implementation of Repository. All
// mutations for a product happen inside one critical section, so the
// primary invariant can never be observed half-applied.
type MemoryStore struct {
	mu       sync.RWMutex
	links    map[uuid.UUID]Link
	versions map[uuid.UUID]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		links:    make(map[uuid.UUID]Link),
		versions: make(map[uuid.UUID]int64),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.links[id]
	if !ok {
		return Link{}, domain.NewNotFoundError("link", id.String())
	}
	return l, nil
}

func (s *MemoryStore) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Link, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(productID), s.versions[productID], nil
}

func (s *MemoryStore) Primary(ctx context.Context, productID uuid.UUID) (Link, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.links {
		if l.ProductID == productID && l.IsPrimary {
			return l, true, nil
		}
	}
	return Link{}, false, nil
}

func (s *MemoryStore) Insert(ctx context.Context, l Link, expectedVersion int64) (Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[l.ProductID] != expectedVersion {
		return Link{}, ErrVersionConflict
	}
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	l.CreatedAt = time.Now().UTC()
	s.links[l.ID] = l
	s.versions[l.ProductID]++
	return l, nil
}

func (s *MemoryStore) SwapPrimary(ctx context.Context, productID, linkID uuid.UUID, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versions[productID] != expectedVersion {
		return ErrVersionConflict
	}
	target, ok := s.links[linkID]
	if !ok || target.ProductID != productID {
		return domain.NewNotFoundError("link", linkID.String())
	}
	for id, l := range s.links {
		if l.ProductID == productID && l.IsPrimary {
			l.IsPrimary = false
			s.links[id] = l
		}
	}
	target.IsPrimary = true
	s.links[linkID] = target
	s.versions[productID]++
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.links[id]
	if !ok {
		return domain.NewNotFoundError("link", id.String())
	}
	if s.versions[l.ProductID] != expectedVersion {
		return ErrVersionConflict
	}
	delete(s.links, id)
	s.versions[l.ProductID]++
	return nil
}

func (s *MemoryStore) listLocked(productID uuid.UUID) []Link {
	out := []Link{}
	for _, l := range s.links {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
