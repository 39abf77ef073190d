// internal/service/coupon/service.go
package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/coupon"
	"dealbridge-billing/internal/domain/plan"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
	"dealbridge-billing/internal/pkg/validation"
	"dealbridge-billing/internal/pricing"
)

type Repository interface {
	Create(ctx context.Context, c *coupon.DiscountCoupon) error
	FindByID(ctx context.Context, id int64) (*coupon.DiscountCoupon, error)
	FindByCode(ctx context.Context, code string) (*coupon.DiscountCoupon, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, c *coupon.DiscountCoupon) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filters *coupon.CouponListFilters) ([]coupon.DiscountCoupon, int64, error)
	GetStats(ctx context.Context) (*coupon.CouponStats, error)
}

type PlanFinder interface {
	FindByID(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, userID, endpoint string, maxRequests int64, window time.Duration) (bool, error)
}

// ValidateLimit caps coupon validation attempts per user and window.
type ValidateLimit struct {
	Max    int64
	Window time.Duration
}

type CouponService struct {
	repo    Repository
	plans   PlanFinder
	limiter RateLimiter
	limit   ValidateLimit
	logger  *zap.Logger
	now     func() time.Time
}

func NewCouponService(repo Repository, plans PlanFinder, limiter RateLimiter, limit ValidateLimit, logger *zap.Logger) *CouponService {
	return &CouponService{
		repo:    repo,
		plans:   plans,
		limiter: limiter,
		limit:   limit,
		logger:  logger,
		now:     time.Now,
	}
}

// ========== Admin Operations ==========

func (s *CouponService) CreateCoupon(ctx context.Context, createdBy string, req *coupon.CreateCouponRequest) (*coupon.DiscountCoupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if !validation.IsCouponCode(code) {
		return nil, fmt.Errorf("%w: code must be 3-50 letters, digits, '-' or '_'", xerrors.ErrValidation)
	}
	if err := validateWindow(req.ValidFrom, req.ValidUntil); err != nil {
		return nil, err
	}
	if req.MaxUses < 1 {
		return nil, fmt.Errorf("%w: max_uses must be at least 1", xerrors.ErrValidation)
	}
	d := pricing.Discount{Type: req.DiscountType, Value: req.DiscountValue}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("coupon code %s: %w", code, xerrors.ErrConflict)
	}

	c := &coupon.DiscountCoupon{
		Code:            code,
		DiscountType:    req.DiscountType,
		DiscountValue:   req.DiscountValue,
		MaxUses:         req.MaxUses,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		IsActive:        true,
		ApplicablePlans: pq.Int64Array(req.ApplicablePlans),
		CreatedBy:       createdBy,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create coupon", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info("coupon created",
		zap.Int64("coupon_id", c.ID),
		zap.String("code", c.Code),
		zap.String("created_by", createdBy),
	)
	return c, nil
}

func (s *CouponService) UpdateCoupon(ctx context.Context, id int64, req *coupon.UpdateCouponRequest) (*coupon.DiscountCoupon, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.DiscountValue != nil {
		d := pricing.Discount{Type: c.DiscountType, Value: *req.DiscountValue}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		c.DiscountValue = *req.DiscountValue
	}
	if req.MaxUses != nil {
		if *req.MaxUses < c.UsedCount {
			return nil, fmt.Errorf("%w: max_uses cannot drop below the %d uses already recorded", xerrors.ErrValidation, c.UsedCount)
		}
		c.MaxUses = *req.MaxUses
	}
	if req.ValidFrom != nil {
		c.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		c.ValidUntil = *req.ValidUntil
	}
	if req.ApplicablePlans != nil {
		c.ApplicablePlans = pq.Int64Array(req.ApplicablePlans)
	}
	if err := validateWindow(c.ValidFrom, c.ValidUntil); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, c); err != nil {
		s.logger.Error("failed to update coupon", zap.Int64("coupon_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}

	s.logger.Info("coupon updated", zap.Int64("coupon_id", id))
	return c, nil
}

func (s *CouponService) ActivateCoupon(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("failed to activate coupon: %w", err)
	}
	s.logger.Info("coupon activated", zap.Int64("coupon_id", id))
	return nil
}

func (s *CouponService) DeactivateCoupon(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}
	s.logger.Info("coupon deactivated", zap.Int64("coupon_id", id))
	return nil
}

// DeleteCoupon removes a coupon nobody has redeemed. Redeemed coupons can
// only be deactivated.
func (s *CouponService) DeleteCoupon(ctx context.Context, id int64) error {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if c.UsedCount > 0 {
		return fmt.Errorf("%w: coupon has been used %d times; deactivate it instead", xerrors.ErrConflict, c.UsedCount)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete coupon: %w", err)
	}
	s.logger.Info("coupon deleted", zap.Int64("coupon_id", id))
	return nil
}

func (s *CouponService) GetCoupon(ctx context.Context, id int64) (*coupon.DiscountCoupon, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *CouponService) ListCoupons(ctx context.Context, filters *coupon.CouponListFilters) (*coupon.CouponListResponse, error) {
	coupons, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}
	return &coupon.CouponListResponse{
		Coupons:    coupons,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *CouponService) GetStats(ctx context.Context) (*coupon.CouponStats, error) {
	return s.repo.GetStats(ctx)
}

// ========== User Operations ==========

// Resolve returns the coupon for code when it is usable on planID now.
// Every rejection is reported as ErrCouponInvalid.
func (s *CouponService) Resolve(ctx context.Context, code string, planID int64) (*coupon.DiscountCoupon, error) {
	c, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrCouponInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	if !c.Usable(s.now()) || !c.AppliesTo(planID) {
		return nil, xerrors.ErrCouponInvalid
	}
	return c, nil
}

// Validate previews a coupon against a plan price for one startup.
func (s *CouponService) Validate(ctx context.Context, userID string, req *coupon.ValidateCouponRequest) (*coupon.ValidateCouponResponse, error) {
	if s.limiter != nil && s.limit.Max > 0 {
		ok, err := s.limiter.Allow(ctx, userID, "coupon_validate", s.limit.Max, s.limit.Window)
		if err != nil {
			s.logger.Warn("coupon rate limiter unavailable", zap.Error(err))
		} else if !ok {
			return nil, xerrors.ErrRateLimited
		}
	}

	p, err := s.plans.FindByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	c, err := s.Resolve(ctx, req.Code, p.ID)
	if err != nil {
		return nil, err
	}

	final := pricing.ApplyDiscount(p.Price, c.Discount())
	return &coupon.ValidateCouponResponse{
		Valid:          true,
		Code:           c.Code,
		DiscountType:   c.DiscountType,
		DiscountValue:  c.DiscountValue,
		DiscountAmount: p.Price.Sub(final),
		FinalPrice:     final,
		RemainingUses:  c.RemainingUses(),
	}, nil
}

func validateWindow(from, until time.Time) error {
	if from.IsZero() || until.IsZero() {
		return fmt.Errorf("%w: valid_from and valid_until are required", xerrors.ErrValidation)
	}
	if !until.After(from) {
		return fmt.Errorf("%w: valid_until must be after valid_from", xerrors.ErrValidation)
	}
	return nil
}
