package linkage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/retry"
	"github.com/courtier-app/premiumservice/internal/shared/log"
)

// Service drives the link state machine: unlinked, linked non-primary,
// linked primary. Version conflicts from concurrent mutations are
// retried transparently a bounded number of times, then surfaced as a
// conflict error.
type Service struct {
	repo  Repository
	retry retry.Config
}

// NewService creates a new linkage service
func NewService(repo Repository) *Service {
	return &Service{repo: repo, retry: retry.DefaultConfig()}
}

func isConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// Link associates a rule with a product. A product's first link becomes
// primary automatically; later ones start non-primary.
func (s *Service) Link(ctx context.Context, productID, ruleID uuid.UUID) (Link, error) {
	var created Link

	err := retry.DoIf(ctx, s.retry, log.L(ctx), isConflict, func() error {
		links, version, err := s.repo.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		for _, l := range links {
			if l.RuleID == ruleID {
				return domain.NewAlreadyExistsError("link", ruleID.String())
			}
		}
		l := Link{
			ProductID: productID,
			RuleID:    ruleID,
			IsPrimary: len(links) == 0,
		}
		created, err = s.repo.Insert(ctx, l, version)
		if isConflict(err) {
			metrics.PrimarySwapConflicts.Inc()
		}
		return err
	})
	if err != nil {
		if isConflict(err) {
			return Link{}, domain.NewPrimaryLinkConflictError(productID.String())
		}
		return Link{}, err
	}

	log.Info(ctx, "Rule linked to product",
		zap.String("product_id", productID.String()),
		zap.String("rule_id", ruleID.String()),
		zap.Bool("is_primary", created.IsPrimary))
	return created, nil
}

// SetPrimary promotes a link to primary, atomically demoting the
// current primary. The "at most one primary per product" invariant is
// never observably violated, including under concurrent requests.
func (s *Service) SetPrimary(ctx context.Context, linkID uuid.UUID) error {
	target, err := s.repo.Get(ctx, linkID)
	if err != nil {
		return err
	}
	if target.IsPrimary {
		return nil
	}

	err = retry.DoIf(ctx, s.retry, log.L(ctx), isConflict, func() error {
		_, version, err := s.repo.ListByProduct(ctx, target.ProductID)
		if err != nil {
			return err
		}
		err = s.repo.SwapPrimary(ctx, target.ProductID, linkID, version)
		if isConflict(err) {
			metrics.PrimarySwapConflicts.Inc()
		}
		return err
	})
	if err != nil {
		if isConflict(err) {
			return domain.NewPrimaryLinkConflictError(target.ProductID.String())
		}
		return err
	}

	log.Info(ctx, "Primary rule changed",
		zap.String("product_id", target.ProductID.String()),
		zap.String("link_id", linkID.String()))
	return nil
}

// Unlink removes a link. A primary link cannot be removed while
// non-primary siblings exist: the primary must be reassigned first, so
// a product never silently loses its pricing rule.
func (s *Service) Unlink(ctx context.Context, linkID uuid.UUID) error {
	err := retry.DoIf(ctx, s.retry, log.L(ctx), isConflict, func() error {
		target, err := s.repo.Get(ctx, linkID)
		if err != nil {
			return err
		}
		links, version, err := s.repo.ListByProduct(ctx, target.ProductID)
		if err != nil {
			return err
		}
		if target.IsPrimary && len(links) > 1 {
			return domain.NewInvalidStateError(
				"cannot unlink the primary rule while other links exist",
				"reassign the primary first")
		}
		err = s.repo.Delete(ctx, linkID, version)
		if isConflict(err) {
			metrics.PrimarySwapConflicts.Inc()
		}
		return err
	})
	if err != nil {
		if isConflict(err) {
			return domain.NewPrimaryLinkConflictError(linkID.String())
		}
		return err
	}

	log.Info(ctx, "Rule unlinked", zap.String("link_id", linkID.String()))
	return nil
}

// ListByProduct returns the product's links.
func (s *Service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]Link, error) {
	links, _, err := s.repo.ListByProduct(ctx, productID)
	return links, err
}

// Primary returns the product's primary link, if any.
func (s *Service) Primary(ctx context.Context, productID uuid.UUID) (Link, bool, error) {
	return s.repo.Primary(ctx, productID)
}
