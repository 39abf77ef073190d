// internal/service/duediligence/service.go
package duediligence

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"dealbridge-billing/internal/domain/duediligence"
	"dealbridge-billing/internal/domain/notification"
	"dealbridge-billing/internal/domain/websocket"
	"dealbridge-billing/internal/events"
	"dealbridge-billing/internal/payment"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/pagination"
	"dealbridge-billing/internal/service/email"
)

type Repository interface {
	UpsertFee(ctx context.Context, f *duediligence.Fee) error
	FindActiveFee(ctx context.Context, country string) (*duediligence.Fee, error)
	ListFees(ctx context.Context) ([]duediligence.Fee, error)
	Create(ctx context.Context, d *duediligence.Request) error
	FindByID(ctx context.Context, id int64) (*duediligence.Request, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*duediligence.Request, error)
	SetPaymentIntent(ctx context.Context, id int64, intentID string) error
	UpdateStatus(ctx context.Context, id int64, from, to duediligence.Status) error
	List(ctx context.Context, filters *duediligence.ListFilters) ([]duediligence.Request, int64, error)
}

type CountryDirectory interface {
	Canonical(ctx context.Context, name string) (string, error)
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

type DueDiligenceService struct {
	repo      Repository
	countries CountryDirectory
	payments  payment.Provider
	notifier  Notifier
	mailer    Mailer
	events    EventEmitter
	logger    *zap.Logger
}

func NewDueDiligenceService(
	repo Repository,
	countries CountryDirectory,
	payments payment.Provider,
	notifier Notifier,
	mailer Mailer,
	events EventEmitter,
	logger *zap.Logger,
) *DueDiligenceService {
	return &DueDiligenceService{
		repo:      repo,
		countries: countries,
		payments:  payments,
		notifier:  notifier,
		mailer:    mailer,
		events:    events,
		logger:    logger,
	}
}

// ========== Fees ==========

func (s *DueDiligenceService) UpsertFee(ctx context.Context, req *duediligence.UpsertFeeRequest) (*duediligence.Fee, error) {
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", xerrors.ErrValidation)
	}
	country, err := s.countries.Canonical(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	fee := &duediligence.Fee{
		Country:  country,
		Amount:   req.Amount.Round(2),
		Currency: req.Currency,
		IsActive: true,
	}
	if req.IsActive != nil {
		fee.IsActive = *req.IsActive
	}

	if err := s.repo.UpsertFee(ctx, fee); err != nil {
		return nil, err
	}

	s.logger.Info("due diligence fee saved",
		zap.String("country", country),
		zap.String("amount", fee.Amount.String()),
		zap.Bool("is_active", fee.IsActive),
	)
	return fee, nil
}

func (s *DueDiligenceService) ListFees(ctx context.Context) ([]duediligence.Fee, error) {
	return s.repo.ListFees(ctx)
}

// ========== Requests ==========

// Create opens a pending request priced at the country's active fee.
func (s *DueDiligenceService) Create(ctx context.Context, userID string, req *duediligence.CreateRequest) (*duediligence.Request, error) {
	country, err := s.countries.Canonical(ctx, req.Country)
	if err != nil {
		return nil, err
	}

	fee, err := s.repo.FindActiveFee(ctx, country)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: no due diligence fee for %s", xerrors.ErrValidation, country)
	}
	if err != nil {
		return nil, err
	}

	d := &duediligence.Request{
		Reference: "DD-" + ulid.Make().String(),
		UserID:    userID,
		StartupID: req.StartupID,
		Country:   country,
		Amount:    fee.Amount,
		Currency:  fee.Currency,
		Status:    duediligence.StatusPending,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info("due diligence request created",
		zap.Int64("request_id", d.ID),
		zap.String("reference", d.Reference),
		zap.String("user_id", userID),
	)
	return d, nil
}

// Pay returns a payment intent for the request. A live intent already
// attached to it is reused.
func (s *DueDiligenceService) Pay(ctx context.Context, userID, userEmail string, id int64) (*duediligence.PaymentResponse, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d.Status != duediligence.StatusPending && d.Status != duediligence.StatusFailed {
		return nil, fmt.Errorf("%w: request is already %s", xerrors.ErrConflict, d.Status)
	}

	if d.PaymentIntentID != nil {
		intent, err := s.payments.GetIntent(ctx, *d.PaymentIntentID)
		if err == nil && intent.Status != payment.IntentCanceled && !intent.Status.Succeeded() {
			return &duediligence.PaymentResponse{Request: d, PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
		}
		if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
			return nil, err
		}
	}

	intent, err := s.payments.CreateIntent(ctx, payment.CreateIntentParams{
		Amount:      d.Amount,
		Currency:    d.Currency,
		Description: "Due diligence " + d.Reference,
		Metadata: map[string]string{
			payment.MetaKind:      payment.KindDueDiligence,
			payment.MetaUserID:    userID,
			payment.MetaEmail:     userEmail,
			payment.MetaReference: d.Reference,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetPaymentIntent(ctx, d.ID, intent.ID); err != nil {
		return nil, err
	}
	d.PaymentIntentID = &intent.ID

	s.logger.Info("due diligence payment intent created",
		zap.Int64("request_id", d.ID),
		zap.String("payment_intent_id", intent.ID),
	)
	return &duediligence.PaymentResponse{Request: d, PaymentIntentID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// Confirm checks the request's payment intent and records the outcome.
func (s *DueDiligenceService) Confirm(ctx context.Context, userID string, id int64) (*duediligence.Request, error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d.Status == duediligence.StatusPaid || d.Status == duediligence.StatusCompleted {
		return d, nil
	}
	if d.PaymentIntentID == nil {
		return nil, fmt.Errorf("%w: request has no payment", xerrors.ErrValidation)
	}

	intent, err := s.payments.GetIntent(ctx, *d.PaymentIntentID)
	if err != nil {
		return nil, err
	}

	switch {
	case intent.Status.Succeeded():
		return s.markPaid(ctx, d, intent)
	case intent.Status == payment.IntentCanceled:
		return s.markFailed(ctx, d)
	default:
		return nil, fmt.Errorf("%w: payment is %s", xerrors.ErrValidation, intent.Status)
	}
}

// ConfirmFromIntent records a successful payment reported by the webhook.
func (s *DueDiligenceService) ConfirmFromIntent(ctx context.Context, intent *payment.Intent) (*duediligence.Request, error) {
	d, err := s.repo.FindByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return nil, err
	}
	if d.Status == duediligence.StatusPaid || d.Status == duediligence.StatusCompleted {
		return d, nil
	}
	if !intent.Status.Succeeded() {
		return nil, fmt.Errorf("%w: payment is %s", xerrors.ErrValidation, intent.Status)
	}
	return s.markPaid(ctx, d, intent)
}

// FailFromIntent records a failed or cancelled payment reported by the
// webhook. Requests already paid are left alone.
func (s *DueDiligenceService) FailFromIntent(ctx context.Context, intent *payment.Intent) (*duediligence.Request, error) {
	d, err := s.repo.FindByPaymentIntent(ctx, intent.ID)
	if err != nil {
		return nil, err
	}
	if d.Status != duediligence.StatusPending {
		return d, nil
	}
	return s.markFailed(ctx, d)
}

// Complete marks a paid request as delivered.
func (s *DueDiligenceService) Complete(ctx context.Context, id int64) (*duediligence.Request, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.transition(ctx, d, duediligence.StatusCompleted); err != nil {
		return nil, err
	}

	s.announce(ctx, d, "Due diligence complete",
		fmt.Sprintf("Due diligence request %s has been completed.", d.Reference))
	return d, nil
}

func (s *DueDiligenceService) markPaid(ctx context.Context, d *duediligence.Request, intent *payment.Intent) (*duediligence.Request, error) {
	if err := s.transition(ctx, d, duediligence.StatusPaid); err != nil {
		return nil, err
	}

	s.events.Emit(ctx, events.DueDiligencePaid, map[string]any{
		"request_id":        d.ID,
		"reference":         d.Reference,
		"user_id":           d.UserID,
		"startup_id":        d.StartupID,
		"amount":            d.Amount,
		"currency":          d.Currency,
		"payment_intent_id": intent.ID,
	})
	s.announce(ctx, d, "Due diligence paid",
		fmt.Sprintf("We received your payment for due diligence request %s.", d.Reference))

	if to := intent.Metadata[payment.MetaEmail]; to != "" {
		subject, body := email.DueDiligenceReceipt(d.Reference, d.Amount, d.Currency)
		if err := s.mailer.Enqueue(ctx, to, subject, body); err != nil {
			s.logger.Warn("failed to queue receipt", zap.Int64("request_id", d.ID), zap.Error(err))
		}
	}
	return d, nil
}

func (s *DueDiligenceService) markFailed(ctx context.Context, d *duediligence.Request) (*duediligence.Request, error) {
	if err := s.transition(ctx, d, duediligence.StatusFailed); err != nil {
		return nil, err
	}
	s.announce(ctx, d, "Due diligence payment failed",
		fmt.Sprintf("Payment for due diligence request %s did not go through.", d.Reference))
	return d, nil
}

func (s *DueDiligenceService) transition(ctx context.Context, d *duediligence.Request, to duediligence.Status) error {
	from := d.Status
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: cannot move request from %s to %s", xerrors.ErrConflict, from, to)
	}
	if err := s.repo.UpdateStatus(ctx, d.ID, from, to); err != nil {
		return err
	}
	d.Status = to

	s.logger.Info("due diligence status changed",
		zap.Int64("request_id", d.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
	return nil
}

func (s *DueDiligenceService) announce(ctx context.Context, d *duediligence.Request, title, message string) {
	s.notifier.Notify(ctx, d.UserID, notification.TypeDueDiligence, title, message, map[string]interface{}{
		"request_id": d.ID,
		"reference":  d.Reference,
	})
	s.notifier.PushBillingUpdate(d.UserID, &websocket.BillingUpdate{
		Kind:      websocket.BillingKindDueDiligence,
		ID:        d.ID,
		Reference: d.Reference,
		Status:    string(d.Status),
	})
}

// ========== Queries ==========

// Get returns one of userID's requests. Other users' requests are reported
// as not found.
func (s *DueDiligenceService) Get(ctx context.Context, userID string, id int64) (*duediligence.Request, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, xerrors.ErrNotFound
	}
	return d, nil
}

func (s *DueDiligenceService) GetAny(ctx context.Context, id int64) (*duediligence.Request, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *DueDiligenceService) ListMine(ctx context.Context, userID string, filters *duediligence.ListFilters) (*duediligence.ListResponse, error) {
	filters.UserID = userID
	return s.List(ctx, filters)
}

func (s *DueDiligenceService) List(ctx context.Context, filters *duediligence.ListFilters) (*duediligence.ListResponse, error) {
	reqs, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list due diligence requests: %w", err)
	}
	return &duediligence.ListResponse{
		Requests:   reqs,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: pagination.TotalPages(total, filters.PageSize),
	}, nil
}
