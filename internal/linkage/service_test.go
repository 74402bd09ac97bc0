package linkage

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtier-app/premiumservice/internal/domain"
)

func TestLinkFirstLinkBecomesPrimary(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()

	first, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)
	assert.True(t, first.IsPrimary, "first link should be primary")

	second, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)
	assert.False(t, second.IsPrimary, "second link should not be primary")

	primary, ok, err := svc.Primary(ctx, productID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.ID, primary.ID)
}

func TestLinkDuplicateRuleRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()
	ruleID := uuid.New()

	_, err := svc.Link(ctx, productID, ruleID)
	require.NoError(t, err)

	_, err = svc.Link(ctx, productID, ruleID)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.ErrCodeAlreadyExists))
}

func TestSetPrimaryMovesDesignation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()

	first, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)
	second, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimary(ctx, second.ID))

	links, err := svc.ListByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, links, 2)
	for _, l := range links {
		switch l.ID {
		case first.ID:
			assert.False(t, l.IsPrimary, "old primary should be demoted")
		case second.ID:
			assert.True(t, l.IsPrimary, "target should be promoted")
		}
	}
}

func TestSetPrimaryAlreadyPrimaryIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store)
	productID := uuid.New()

	first, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)

	_, versionBefore, err := store.ListByProduct(ctx, productID)
	require.NoError(t, err)

	require.NoError(t, svc.SetPrimary(ctx, first.ID))

	_, versionAfter, err := store.ListByProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, versionBefore, versionAfter, "no-op should not advance the version token")
}

func TestUnlinkPrimaryWithSiblingsRefused(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()

	first, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)
	second, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)

	err = svc.Unlink(ctx, first.ID)
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.ErrCodeInvalidState))

	// Reassigning the primary unblocks the removal.
	require.NoError(t, svc.SetPrimary(ctx, second.ID))
	require.NoError(t, svc.Unlink(ctx, first.ID))

	links, err := svc.ListByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, second.ID, links[0].ID)
}

func TestUnlinkLastLinkAllowed(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()

	only, err := svc.Link(ctx, productID, uuid.New())
	require.NoError(t, err)
	require.NoError(t, svc.Unlink(ctx, only.ID))

	_, ok, err := svc.Primary(ctx, productID)
	require.NoError(t, err)
	assert.False(t, ok, "product should have no primary after last unlink")
}

func TestUnlinkNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())

	err := svc.Unlink(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, domain.HasCode(err, domain.ErrCodeNotFound))
}

// Concurrent promotions must leave exactly one primary link once all
// requests settle, regardless of interleaving.
func TestConcurrentSetPrimaryKeepsSinglePrimary(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore())
	productID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		l, err := svc.Link(ctx, productID, uuid.New())
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			// Conflicts that exhaust the retry budget are an
			// acceptable outcome here; corruption is not.
			_ = svc.SetPrimary(ctx, id)
		}(id)
	}
	wg.Wait()

	links, err := svc.ListByProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, links, 5)

	primaries := 0
	for _, l := range links {
		if l.IsPrimary {
			primaries++
		}
	}
	assert.Equal(t, 1, primaries, "exactly one link should be primary")
}

func TestInsertStaleVersionConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	productID := uuid.New()

	_, err := store.Insert(ctx, Link{ProductID: productID, RuleID: uuid.New(), IsPrimary: true}, 0)
	require.NoError(t, err)

	_, err = store.Insert(ctx, Link{ProductID: productID, RuleID: uuid.New()}, 0)
	assert.ErrorIs(t, err, ErrVersionConflict)
}
