// internal/service/plan/service.go
package plan

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/coupon"
	"dealbridge-billing/internal/domain/plan"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
	"dealbridge-billing/internal/pricing"
)

type Repository interface {
	Create(ctx context.Context, p *plan.SubscriptionPlan) error
	FindByID(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
	ExistsByPlanCode(ctx context.Context, planCode string) (bool, error)
	Update(ctx context.Context, p *plan.SubscriptionPlan) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, filters *plan.PlanListFilters) ([]plan.SubscriptionPlan, int64, error)
	CountActiveSubscriptions(ctx context.Context, planID int64) (int64, error)
	GetStats(ctx context.Context) (*plan.PlanStats, error)
}

type CountryDirectory interface {
	Canonical(ctx context.Context, name string) (string, error)
}

// CouponResolver returns a coupon usable on planID or ErrCouponInvalid.
type CouponResolver interface {
	Resolve(ctx context.Context, code string, planID int64) (*coupon.DiscountCoupon, error)
}

type PlanService struct {
	repo      Repository
	countries CountryDirectory
	coupons   CouponResolver
	logger    *zap.Logger
}

func NewPlanService(repo Repository, countries CountryDirectory, coupons CouponResolver, logger *zap.Logger) *PlanService {
	return &PlanService{repo: repo, countries: countries, coupons: coupons, logger: logger}
}

// ========== Admin Operations ==========

func (s *PlanService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.SubscriptionPlan, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price cannot be negative", xerrors.ErrValidation)
	}
	if !req.Interval.Valid() {
		return nil, fmt.Errorf("%w: interval must be monthly or yearly", xerrors.ErrValidation)
	}
	if !req.UserType.Valid() {
		return nil, fmt.Errorf("%w: unknown user type %q", xerrors.ErrValidation, req.UserType)
	}

	country, err := s.countries.Canonical(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	code, err := s.generatePlanCode(ctx, req.Name, country)
	if err != nil {
		return nil, err
	}

	p := &plan.SubscriptionPlan{
		PlanCode: code,
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price.Round(2),
		Currency: strings.ToUpper(req.Currency),
		Interval: req.Interval,
		UserType: req.UserType,
		Country:  country,
		IsActive: true,
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = &d
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create plan", zap.String("plan_code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	s.logger.Info("plan created",
		zap.Int64("plan_id", p.ID),
		zap.String("plan_code", p.PlanCode),
		zap.String("price", p.Price.String()),
	)
	return p, nil
}

// UpdatePlan applies the non-nil fields of req. Billing terms (price,
// currency, interval) are frozen while subscriptions still bill on the plan.
func (s *PlanService) UpdatePlan(ctx context.Context, id int64, req *plan.UpdatePlanRequest) (*plan.SubscriptionPlan, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	termsChanged := (req.Price != nil && !req.Price.Equal(p.Price)) ||
		(req.Currency != nil && !strings.EqualFold(*req.Currency, p.Currency)) ||
		(req.Interval != nil && *req.Interval != p.Interval)
	if termsChanged {
		n, err := s.repo.CountActiveSubscriptions(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check plan subscriptions: %w", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: plan has %d active subscriptions; price, currency and interval cannot change", xerrors.ErrConflict, n)
		}
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			p.Description = &d
		} else {
			p.Description = nil
		}
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("%w: price cannot be negative", xerrors.ErrValidation)
		}
		p.Price = req.Price.Round(2)
	}
	if req.Currency != nil {
		p.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Interval != nil {
		if !req.Interval.Valid() {
			return nil, fmt.Errorf("%w: interval must be monthly or yearly", xerrors.ErrValidation)
		}
		p.Interval = *req.Interval
	}

	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to update plan", zap.Int64("plan_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	s.logger.Info("plan updated", zap.Int64("plan_id", id))
	return p, nil
}

func (s *PlanService) ActivatePlan(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, true); err != nil {
		return fmt.Errorf("failed to activate plan: %w", err)
	}
	s.logger.Info("plan activated", zap.Int64("plan_id", id))
	return nil
}

// DeactivatePlan hides the plan from new subscribers; existing
// subscriptions keep running.
func (s *PlanService) DeactivatePlan(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}
	s.logger.Info("plan deactivated", zap.Int64("plan_id", id))
	return nil
}

func (s *PlanService) ListPlans(ctx context.Context, filters *plan.PlanListFilters) (*plan.PlanListResponse, error) {
	plans, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return &plan.PlanListResponse{
		Plans:      plans,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *PlanService) GetStats(ctx context.Context) (*plan.PlanStats, error) {
	return s.repo.GetStats(ctx)
}

// ========== User Operations ==========

func (s *PlanService) GetPlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	return s.repo.FindByID(ctx, id)
}

// GetActivePlan is GetPlan restricted to plans open for new subscriptions.
func (s *PlanService) GetActivePlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("plan %d: %w", id, xerrors.ErrNotFound)
	}
	return p, nil
}

// ListAvailable lists active plans for a user type, optionally narrowed
// to a country.
func (s *PlanService) ListAvailable(ctx context.Context, userType plan.UserType, country string, filters *plan.PlanListFilters) (*plan.PlanListResponse, error) {
	active := true
	filters.IsActive = &active
	if userType.Valid() {
		filters.UserType = &userType
	}
	if country != "" && filters.Country == "" {
		filters.Country = country
	}
	return s.ListPlans(ctx, filters)
}

// Quote prices startupCount seats on a plan, applying couponCode when given.
func (s *PlanService) Quote(ctx context.Context, planID int64, req *plan.PriceQuoteRequest) (*plan.PriceQuote, error) {
	p, err := s.GetActivePlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	var discount *pricing.Discount
	code := strings.ToUpper(strings.TrimSpace(req.CouponCode))
	if code != "" {
		c, err := s.coupons.Resolve(ctx, code, p.ID)
		if err != nil {
			return nil, err
		}
		discount = c.Discount()
	}

	total, err := pricing.SubscriptionPrice(p.Price, req.StartupCount, discount)
	if err != nil {
		return nil, err
	}
	subtotal := p.Price.Mul(decimal.NewFromInt(int64(req.StartupCount))).Round(2)

	return &plan.PriceQuote{
		PlanID:         p.ID,
		UnitPrice:      p.Price,
		StartupCount:   req.StartupCount,
		Subtotal:       subtotal,
		DiscountAmount: subtotal.Sub(total),
		Total:          total,
		Currency:       p.Currency,
		CouponCode:     code,
	}, nil
}

// ========== Helpers ==========

func (s *PlanService) generatePlanCode(ctx context.Context, name, country string) (string, error) {
	base := slug.Make(name + " " + country)
	if base == "" {
		return "", fmt.Errorf("%w: plan name must contain letters or digits", xerrors.ErrValidation)
	}

	code := base
	for i := 2; i <= 100; i++ {
		exists, err := s.repo.ExistsByPlanCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check plan code: %w", err)
		}
		if !exists {
			return code, nil
		}
		code = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w: could not allocate a plan code for %q", xerrors.ErrConflict, name)
}
