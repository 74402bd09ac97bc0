package rules

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/shared/cache"
	"github.com/courtier-app/premiumservice/internal/shared/log"
)

// Service provides business logic for rule definitions
type Service struct {
	repo     Repository
	cache    *cache.Cache
	cacheTTL time.Duration
}

// NewService creates a new rules service. The cache is optional.
func NewService(repo Repository, c *cache.Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &Service{repo: repo, cache: c, cacheTTL: cacheTTL}
}

// Create validates and stores a new rule definition
func (s *Service) Create(ctx context.Context, r RuleDefinition) (RuleDefinition, error) {
	if err := r.Validate(); err != nil {
		return RuleDefinition{}, err
	}
	r.IsActive = true

	created, err := s.repo.Insert(ctx, r)
	if err != nil {
		log.Error(ctx, "Failed to create rule definition",
			zap.String("name", r.Name),
			zap.Error(err))
		return RuleDefinition{}, err
	}

	log.Info(ctx, "Rule definition created",
		zap.String("rule_id", created.ID.String()),
		zap.String("usage_category", created.UsageCategory))
	return created, nil
}

// Update validates and saves an existing rule definition
func (s *Service) Update(ctx context.Context, r RuleDefinition) (RuleDefinition, error) {
	if r.ID == uuid.Nil {
		return RuleDefinition{}, domain.NewInvalidInputError("rule id is required", "")
	}
	if err := r.Validate(); err != nil {
		return RuleDefinition{}, err
	}

	updated, err := s.repo.Update(ctx, r)
	if err != nil {
		log.Error(ctx, "Failed to update rule definition",
			zap.String("rule_id", r.ID.String()),
			zap.Error(err))
		return RuleDefinition{}, err
	}

	s.invalidate(ctx, r.ID)

	log.Info(ctx, "Rule definition updated", zap.String("rule_id", r.ID.String()))
	return updated, nil
}

// Deactivate soft-deletes a rule definition. Definitions referenced by
// a live product link are never hard-deleted.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	r.IsActive = false
	if _, err := s.repo.Update(ctx, r); err != nil {
		return fmt.Errorf("failed to deactivate rule definition: %w", err)
	}
	s.invalidate(ctx, id)
	log.Info(ctx, "Rule definition deactivated", zap.String("rule_id", id.String()))
	return nil
}

// Get retrieves a rule definition, read-through cached, and re-validates
// it defensively before handing it to the engine.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (RuleDefinition, error) {
	if s.cache != nil {
		var cached RuleDefinition
		err := s.cache.Get(ctx, cache.RuleKey(id.String()), &cached)
		if err == nil {
			metrics.CacheHit.WithLabelValues("rule").Inc()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn(ctx, "Rule cache read failed", zap.Error(err))
		}
		metrics.CacheMiss.WithLabelValues("rule").Inc()
	}

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return RuleDefinition{}, err
	}

	if err := r.Validate(); err != nil {
		log.Warn(ctx, "Stored rule definition failed validation",
			zap.String("rule_id", id.String()),
			zap.Error(err))
		return RuleDefinition{}, domain.NewInvalidStateError("stored rule definition is malformed", err.Error())
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.RuleKey(id.String()), r, s.cacheTTL); err != nil {
			log.Warn(ctx, "Rule cache write failed", zap.Error(err))
		}
	}
	return r, nil
}

// List retrieves rule definitions, optionally filtered by usage category
func (s *Service) List(ctx context.Context, usageCategory string) ([]RuleDefinition, error) {
	defs, err := s.repo.List(ctx, usageCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule definitions: %w", err)
	}
	return defs, nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.RuleKey(id.String())); err != nil {
		log.Warn(ctx, "Rule cache invalidation failed",
			zap.String("rule_id", id.String()),
			zap.Error(err))
	}
}
