// internal/service/subscription/service.go
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/coupon"
	"dealbridge-billing/internal/domain/notification"
	"dealbridge-billing/internal/domain/plan"
	"dealbridge-billing/internal/domain/subscription"
	"dealbridge-billing/internal/domain/websocket"
	"dealbridge-billing/internal/events"
	"dealbridge-billing/internal/metrics"
	"dealbridge-billing/internal/payment"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
	"dealbridge-billing/internal/pricing"
	"dealbridge-billing/internal/service/email"
)

type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type Repository interface {
	CreateWithTx(ctx context.Context, tx pgx.Tx, s *subscription.UserSubscription) error
	FindByID(ctx context.Context, id int64) (*subscription.UserSubscription, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*subscription.UserSubscription, error)
	UpdateQuantity(ctx context.Context, s *subscription.UserSubscription) error
	UpdateStatus(ctx context.Context, id int64, from, to subscription.Status) error
	MarkPastDue(ctx context.Context, now time.Time) ([]subscription.UserSubscription, error)
	ListForSummary(ctx context.Context, userID string) ([]subscription.SubscriptionWithPlan, error)
	List(ctx context.Context, filters *subscription.SubscriptionListFilters) ([]subscription.UserSubscription, int64, error)
	GetStats(ctx context.Context) (*subscription.SubscriptionStats, error)
}

type PlanLookup interface {
	GetPlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
	GetActivePlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
}

type CouponResolver interface {
	Resolve(ctx context.Context, code string, planID int64) (*coupon.DiscountCoupon, error)
}

type CouponStore interface {
	FindByID(ctx context.Context, id int64) (*coupon.DiscountCoupon, error)
	RedeemWithTx(ctx context.Context, tx pgx.Tx, id int64) (bool, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID string, typ notification.NotificationType, title, message string, metadata map[string]interface{})
	PushBillingUpdate(userID string, update *websocket.BillingUpdate)
}

type Mailer interface {
	Enqueue(ctx context.Context, to, subject, body string) error
}

type EventEmitter interface {
	Emit(ctx context.Context, routingKey string, data any)
}

type Deps struct {
	Tx       TxRunner
	Repo     Repository
	Plans    PlanLookup
	Coupons  CouponResolver
	Redeemer CouponStore
	Payments payment.Provider
	Notifier Notifier
	Mailer   Mailer
	Events   EventEmitter
	Logger   *zap.Logger
}

type SubscriptionService struct {
	Deps
	now func() time.Time
}

func NewSubscriptionService(d Deps) *SubscriptionService {
	return &SubscriptionService{Deps: d, now: time.Now}
}

// ========== Payment Flow ==========

// CreateIntent prices the requested seats and opens a payment intent for
// them. Nothing is persisted until the intent is confirmed.
func (s *SubscriptionService) CreateIntent(ctx context.Context, userID, userEmail string, req *subscription.CreateIntentRequest) (*subscription.IntentResponse, error) {
	if req.StartupCount < 1 {
		return nil, fmt.Errorf("%w: startup_count must be at least 1", xerrors.ErrValidation)
	}

	p, err := s.Plans.GetActivePlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		payment.MetaKind:         payment.KindSubscription,
		payment.MetaUserID:       userID,
		payment.MetaEmail:        userEmail,
		payment.MetaPlanID:       strconv.FormatInt(p.ID, 10),
		payment.MetaStartupCount: strconv.Itoa(req.StartupCount),
	}

	var discount *pricing.Discount
	if req.CouponCode != "" {
		c, err := s.Coupons.Resolve(ctx, req.CouponCode, p.ID)
		if err != nil {
			return nil, err
		}
		discount = c.Discount()
		meta[payment.MetaCouponID] = strconv.FormatInt(c.ID, 10)
		meta[payment.MetaDiscountType] = string(c.DiscountType)
		meta[payment.MetaDiscountValue] = c.DiscountValue.String()
	}

	amount, err := pricing.SubscriptionPrice(p.Price, req.StartupCount, discount)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: the discounted price leaves nothing to charge", xerrors.ErrValidation)
	}

	intent, err := s.Payments.CreateIntent(ctx, payment.CreateIntentParams{
		Amount:      amount,
		Currency:    p.Currency,
		Description: fmt.Sprintf("%s x%d", p.Name, req.StartupCount),
		Metadata:    meta,
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("subscription payment intent created",
		zap.String("user_id", userID),
		zap.Int64("plan_id", p.ID),
		zap.String("payment_intent_id", intent.ID),
		zap.String("amount", amount.String()),
	)

	return &subscription.IntentResponse{
		PaymentIntentID: intent.ID,
		ClientSecret:    intent.ClientSecret,
		Status:          string(intent.Status),
		Amount:          amount,
		Currency:        p.Currency,
	}, nil
}

// ConfirmIntent records the subscription paid for by intentID. Confirming
// the same intent again returns the subscription already recorded.
func (s *SubscriptionService) ConfirmIntent(ctx context.Context, userID, intentID string) (*subscription.UserSubscription, error) {
	existing, err := s.Repo.FindByPaymentIntent(ctx, intentID)
	if err == nil {
		if existing.UserID != userID {
			return nil, xerrors.ErrNotFound
		}
		return existing, nil
	}
	if !errors.Is(err, xerrors.ErrNotFound) {
		return nil, err
	}

	intent, err := s.Payments.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Kind() != payment.KindSubscription || intent.Metadata[payment.MetaUserID] != userID {
		return nil, xerrors.ErrNotFound
	}
	return s.ConfirmFromIntent(ctx, intent)
}

// ConfirmFromIntent is the trusted path used by ConfirmIntent and by the
// payment webhook once the intent has been authenticated.
func (s *SubscriptionService) ConfirmFromIntent(ctx context.Context, intent *payment.Intent) (*subscription.UserSubscription, error) {
	if !intent.Status.Succeeded() {
		return nil, fmt.Errorf("%w: payment is %s", xerrors.ErrValidation, intent.Status)
	}

	planID, err := strconv.ParseInt(intent.Metadata[payment.MetaPlanID], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent has no plan", xerrors.ErrValidation)
	}
	count, err := strconv.Atoi(intent.Metadata[payment.MetaStartupCount])
	if err != nil || count < 1 {
		return nil, fmt.Errorf("%w: payment intent has no startup count", xerrors.ErrValidation)
	}

	p, err := s.Plans.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	start := s.now().UTC()
	intentID := intent.ID
	sub := &subscription.UserSubscription{
		SubscriptionReference: "SUB-" + ulid.Make().String(),
		UserID:                intent.Metadata[payment.MetaUserID],
		PlanID:                p.ID,
		Status:                subscription.StatusActive,
		CurrentPeriodStart:    start,
		CurrentPeriodEnd:      p.Interval.PeriodEnd(start),
		StartupCount:          count,
		UnitPrice:             p.Price,
		Amount:                intent.Amount,
		Currency:              p.Currency,
		Interval:              p.Interval,
		PaymentIntentID:       &intentID,
	}

	var c *coupon.DiscountCoupon
	if raw := intent.Metadata[payment.MetaCouponID]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad coupon reference on payment intent", xerrors.ErrValidation)
		}
		c, err = s.Redeemer.FindByID(ctx, id)
		switch {
		case errors.Is(err, xerrors.ErrNotFound):
			// Deleted while the intent was open. The charge already carries the
			// discount, so keep the snapshot from the intent and skip the redeem.
			c = nil
			metrics.RecordCouponRedemption("missing")
			s.Logger.Warn("coupon on paid intent no longer exists",
				zap.Int64("coupon_id", id),
				zap.String("payment_intent_id", intent.ID),
			)
			sub.DiscountType, sub.DiscountValue = discountFromMeta(intent.Metadata)
		case err != nil:
			return nil, fmt.Errorf("failed to load coupon: %w", err)
		default:
			sub.CouponID = &c.ID
			sub.DiscountType = &c.DiscountType
			sub.DiscountValue = &c.DiscountValue
		}
	}

	redeemed := false
	err = s.Tx.WithTx(ctx, func(tx pgx.Tx) error {
		if err := s.Repo.CreateWithTx(ctx, tx, sub); err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		ok, err := s.Redeemer.RedeemWithTx(ctx, tx, c.ID)
		if err != nil {
			return err
		}
		redeemed = ok
		return nil
	})
	if errors.Is(err, xerrors.ErrConflict) {
		// Another confirmation for the same intent won the insert.
		return s.Repo.FindByPaymentIntent(ctx, intent.ID)
	}
	if err != nil {
		s.Logger.Error("failed to record subscription",
			zap.String("payment_intent_id", intent.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to record subscription: %w", err)
	}

	if c != nil {
		if redeemed {
			metrics.RecordCouponRedemption("redeemed")
			s.Events.Emit(ctx, events.CouponRedeemed, map[string]any{
				"coupon_id": c.ID, "subscription_id": sub.ID,
			})
		} else {
			// The payment already went through at the discounted price.
			metrics.RecordCouponRedemption("exhausted")
			s.Logger.Warn("coupon cap reached before redemption was recorded",
				zap.Int64("coupon_id", c.ID),
				zap.Int64("subscription_id", sub.ID),
			)
		}
	}

	metrics.RecordSubscription(string(sub.Interval))
	s.Logger.Info("subscription created",
		zap.Int64("subscription_id", sub.ID),
		zap.String("reference", sub.SubscriptionReference),
		zap.String("user_id", sub.UserID),
	)

	s.Events.Emit(ctx, events.SubscriptionCreated, sub)
	s.announce(ctx, sub, "Subscription active",
		fmt.Sprintf("Your %s subscription is active until %s.", p.Name, sub.CurrentPeriodEnd.Format("2 Jan 2006")))

	if to := intent.Metadata[payment.MetaEmail]; to != "" {
		subject, body := email.SubscriptionReceipt(p.Name, sub.SubscriptionReference, sub.Amount, sub.Currency, sub.CurrentPeriodEnd)
		if err := s.Mailer.Enqueue(ctx, to, subject, body); err != nil {
			s.Logger.Warn("failed to queue receipt", zap.Int64("subscription_id", sub.ID), zap.Error(err))
		}
	}
	return sub, nil
}

// discountFromMeta reads the discount snapshot written by CreateIntent.
// Intents without a usable snapshot yield nil for both.
func discountFromMeta(meta map[string]string) (*pricing.DiscountType, *decimal.Decimal) {
	t := pricing.DiscountType(meta[payment.MetaDiscountType])
	v, err := decimal.NewFromString(meta[payment.MetaDiscountValue])
	if !t.Valid() || err != nil {
		return nil, nil
	}
	return &t, &v
}

// ========== Lifecycle ==========

// ChangeQuantity re-prices a subscription for a new startup count using
// the discount captured when it was created.
func (s *SubscriptionService) ChangeQuantity(ctx context.Context, userID string, id int64, count int) (*subscription.UserSubscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == subscription.StatusCancelled {
		return nil, fmt.Errorf("%w: subscription is cancelled", xerrors.ErrConflict)
	}

	amount, err := pricing.SubscriptionPrice(sub.UnitPrice, count, sub.Discount())
	if err != nil {
		return nil, err
	}

	sub.StartupCount = count
	sub.Amount = amount
	if err := s.Repo.UpdateQuantity(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to change quantity: %w", err)
	}

	s.Logger.Info("subscription quantity changed",
		zap.Int64("subscription_id", id),
		zap.Int("startup_count", count),
		zap.String("amount", amount.String()),
	)
	return sub, nil
}

// ChangeStatus moves a subscription along the status table. Setting the
// current status again is a no-op.
func (s *SubscriptionService) ChangeStatus(ctx context.Context, id int64, to subscription.Status) (*subscription.UserSubscription, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", xerrors.ErrValidation, to)
	}

	sub, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, sub, to)
}

// Cancel ends the caller's own subscription.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string, id int64) (*subscription.UserSubscription, error) {
	sub, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, sub, subscription.StatusCancelled)
}

func (s *SubscriptionService) transition(ctx context.Context, sub *subscription.UserSubscription, to subscription.Status) (*subscription.UserSubscription, error) {
	from := sub.Status
	if from == to {
		return sub, nil
	}
	if !from.CanTransition(to) {
		return nil, fmt.Errorf("%w: cannot move subscription from %s to %s", xerrors.ErrConflict, from, to)
	}

	if err := s.Repo.UpdateStatus(ctx, sub.ID, from, to); err != nil {
		return nil, err
	}
	sub.Status = to
	if to == subscription.StatusCancelled {
		now := s.now().UTC()
		sub.CancelledAt = &now
	}

	s.Logger.Info("subscription status changed",
		zap.Int64("subscription_id", sub.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	s.Events.Emit(ctx, events.SubscriptionStatusChanged, map[string]any{
		"subscription_id": sub.ID, "reference": sub.SubscriptionReference,
		"user_id": sub.UserID, "from": from, "to": to,
	})
	s.announce(ctx, sub, "Subscription updated",
		fmt.Sprintf("Subscription %s is now %s.", sub.SubscriptionReference, to))
	return sub, nil
}

// SweepPastDue moves active subscriptions whose period has ended to
// past_due and tells their owners.
func (s *SubscriptionService) SweepPastDue(ctx context.Context) (int, error) {
	subs, err := s.Repo.MarkPastDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to sweep past due subscriptions: %w", err)
	}

	for i := range subs {
		sub := &subs[i]
		s.Events.Emit(ctx, events.SubscriptionStatusChanged, map[string]any{
			"subscription_id": sub.ID, "reference": sub.SubscriptionReference,
			"user_id": sub.UserID, "from": subscription.StatusActive, "to": subscription.StatusPastDue,
		})
		s.announce(ctx, sub, "Payment past due",
			fmt.Sprintf("Subscription %s ended on %s and is now past due.",
				sub.SubscriptionReference, sub.CurrentPeriodEnd.Format("2 Jan 2006")))
	}

	if len(subs) > 0 {
		metrics.RecordPastDue(len(subs))
		s.Logger.Info("past due sweep finished", zap.Int("moved", len(subs)))
	}
	return len(subs), nil
}

// RunSweeper calls SweepPastDue every interval until ctx is cancelled.
func (s *SubscriptionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepPastDue(ctx); err != nil {
				s.Logger.Error("past due sweep failed", zap.Error(err))
			}
		}
	}
}

// ========== Queries ==========

// Get returns one of userID's subscriptions. Other users' subscriptions
// are reported as not found.
func (s *SubscriptionService) Get(ctx context.Context, userID string, id int64) (*subscription.UserSubscription, error) {
	sub, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return sub, nil
}

func (s *SubscriptionService) GetAny(ctx context.Context, id int64) (*subscription.UserSubscription, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *SubscriptionService) ListMine(ctx context.Context, userID string, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error) {
	filters.UserID = userID
	return s.List(ctx, filters)
}

func (s *SubscriptionService) List(ctx context.Context, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error) {
	subs, total, err := s.Repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return &subscription.SubscriptionListResponse{
		Subscriptions: subs,
		Total:         total,
		Page:          filters.Page,
		PageSize:      filters.PageSize,
		TotalPages:    pagination.TotalPages(total, filters.PageSize),
	}, nil
}

func (s *SubscriptionService) GetStats(ctx context.Context) (*subscription.SubscriptionStats, error) {
	return s.Repo.GetStats(ctx)
}

// Summary totals what the user's active subscriptions will cost at
// current plan prices.
func (s *SubscriptionService) Summary(ctx context.Context, userID string) (*pricing.Summary, error) {
	rows, err := s.Repo.ListForSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	items := make([]pricing.SummaryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, pricing.SummaryItem{
			PlanID:           r.PlanID,
			PlanName:         r.PlanName,
			UnitPrice:        r.PlanPrice,
			StartupCount:     r.StartupCount,
			Currency:         r.Currency,
			CurrentPeriodEnd: r.CurrentPeriodEnd,
		})
	}
	summary := pricing.Summarize(items)
	return &summary, nil
}

func (s *SubscriptionService) announce(ctx context.Context, sub *subscription.UserSubscription, title, message string) {
	s.Notifier.Notify(ctx, sub.UserID, notification.TypeBilling, title, message, map[string]interface{}{
		"subscription_id": sub.ID,
		"reference":       sub.SubscriptionReference,
	})
	s.Notifier.PushBillingUpdate(sub.UserID, &websocket.BillingUpdate{
		Kind:      websocket.BillingKindSubscription,
		ID:        sub.ID,
		Reference: sub.SubscriptionReference,
		Status:    string(sub.Status),
	})
}
