package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/shared/cache"
	"github.com/courtier-app/premiumservice/internal/shared/log"
)

// Service provides business logic for the variable catalog
type Service struct {
	repo     Repository
	cache    *cache.Cache
	cacheTTL time.Duration
}

// NewService creates a new catalog service. The cache is optional.
func NewService(repo Repository, c *cache.Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{repo: repo, cache: c, cacheTTL: cacheTTL}
}

// Create normalizes the code and stores a new variable
func (s *Service) Create(ctx context.Context, v Variable) (Variable, error) {
	v.Code = NormalizeCode(v.Code)
	if err := v.Validate(); err != nil {
		return Variable{}, err
	}
	v.IsActive = true

	created, err := s.repo.Insert(ctx, v)
	if err != nil {
		log.Error(ctx, "Failed to create variable",
			zap.String("code", v.Code),
			zap.Error(err))
		return Variable{}, err
	}

	log.Info(ctx, "Variable created",
		zap.String("code", created.Code),
		zap.String("type", string(created.Type)))
	return created, nil
}

// Update applies a patch to the mutable fields of a variable. The code
// itself is immutable.
func (s *Service) Update(ctx context.Context, code string, patch VariablePatch) (Variable, error) {
	code = NormalizeCode(code)

	existing, err := s.repo.Get(ctx, code)
	if err != nil {
		return Variable{}, err
	}

	if patch.Label != nil {
		existing.Label = *patch.Label
	}
	if patch.Options != nil {
		existing.Options = patch.Options
	}
	if patch.Category != nil {
		existing.Category = *patch.Category
	}
	if patch.IsActive != nil {
		existing.IsActive = *patch.IsActive
	}
	if err := existing.Validate(); err != nil {
		return Variable{}, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		log.Error(ctx, "Failed to update variable",
			zap.String("code", code),
			zap.Error(err))
		return Variable{}, err
	}

	s.invalidate(ctx, code)

	log.Info(ctx, "Variable updated", zap.String("code", code))
	return updated, nil
}

// Deactivate soft-deletes a variable. The code stays reserved so
// historical quotes referencing it remain replayable.
func (s *Service) Deactivate(ctx context.Context, code string) error {
	inactive := false
	if _, err := s.Update(ctx, code, VariablePatch{IsActive: &inactive}); err != nil {
		return fmt.Errorf("failed to deactivate variable: %w", err)
	}
	return nil
}

// Get retrieves a variable by code, read-through cached
func (s *Service) Get(ctx context.Context, code string) (Variable, error) {
	code = NormalizeCode(code)

	if s.cache != nil {
		var cached Variable
		err := s.cache.Get(ctx, cache.VariableKey(code), &cached)
		if err == nil {
			metrics.CacheHit.WithLabelValues("variable").Inc()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn(ctx, "Variable cache read failed", zap.Error(err))
		}
		metrics.CacheMiss.WithLabelValues("variable").Inc()
	}

	v, err := s.repo.Get(ctx, code)
	if err != nil {
		return Variable{}, err
	}

	// Defensive re-validation: the catalog may have been written by a
	// separate admin process.
	if err := v.Validate(); err != nil {
		log.Warn(ctx, "Stored variable failed validation",
			zap.String("code", code),
			zap.Error(err))
		return Variable{}, domain.NewInvalidStateError("stored variable is malformed", code)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.VariableKey(code), v, s.cacheTTL); err != nil {
			log.Warn(ctx, "Variable cache write failed", zap.Error(err))
		}
	}
	return v, nil
}

// List retrieves variables, optionally filtered by category
func (s *Service) List(ctx context.Context, category string) ([]Variable, error) {
	vars, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	return vars, nil
}

func (s *Service) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.VariableKey(code)); err != nil {
		log.Warn(ctx, "Variable cache invalidation failed",
			zap.String("code", code),
			zap.Error(err))
	}
}
