// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/subscription"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/pkg/response"
	"dealbridge-billing/internal/pricing"
)

type SubscriptionService interface {
	CreateIntent(ctx context.Context, userID, userEmail string, req *subscription.CreateIntentRequest) (*subscription.IntentResponse, error)
	ConfirmIntent(ctx context.Context, userID, intentID string) (*subscription.UserSubscription, error)
	ChangeQuantity(ctx context.Context, userID string, id int64, count int) (*subscription.UserSubscription, error)
	ChangeStatus(ctx context.Context, id int64, to subscription.Status) (*subscription.UserSubscription, error)
	Cancel(ctx context.Context, userID string, id int64) (*subscription.UserSubscription, error)
	Get(ctx context.Context, userID string, id int64) (*subscription.UserSubscription, error)
	GetAny(ctx context.Context, id int64) (*subscription.UserSubscription, error)
	ListMine(ctx context.Context, userID string, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error)
	List(ctx context.Context, filters *subscription.SubscriptionListFilters) (*subscription.SubscriptionListResponse, error)
	GetStats(ctx context.Context) (*subscription.SubscriptionStats, error)
	Summary(ctx context.Context, userID string) (*pricing.Summary, error)
}

type SubscriptionHandler struct {
	subscriptionService SubscriptionService
}

func NewSubscriptionHandler(subscriptionService SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid subscription ID", err)
		return 0, false
	}
	return id, true
}

// ========== Payments ==========

func (h *SubscriptionHandler) CreateIntent(c *gin.Context) {
	var req subscription.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	intent, err := h.subscriptionService.CreateIntent(c.Request.Context(), middleware.MustGetUserID(c), middleware.GetEmail(c), &req)
	if err != nil {
		response.FromError(c, "failed to create payment intent", err)
		return
	}
	response.Success(c, http.StatusCreated, "payment intent created", intent)
}

func (h *SubscriptionHandler) ConfirmIntent(c *gin.Context) {
	var req subscription.ConfirmIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	sub, err := h.subscriptionService.ConfirmIntent(c.Request.Context(), middleware.MustGetUserID(c), req.PaymentIntentID)
	if err != nil {
		response.FromError(c, "failed to confirm payment", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription active", sub)
}

// ========== Own subscriptions ==========

func (h *SubscriptionHandler) ListMine(c *gin.Context) {
	var filters subscription.SubscriptionListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.subscriptionService.ListMine(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}
	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

func (h *SubscriptionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Get(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		response.FromError(c, "failed to get subscription", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

func (h *SubscriptionHandler) ChangeQuantity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.ChangeQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	sub, err := h.subscriptionService.ChangeQuantity(c.Request.Context(), middleware.MustGetUserID(c), id, req.StartupCount)
	if err != nil {
		response.FromError(c, "failed to change quantity", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription updated", sub)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		response.FromError(c, "failed to cancel subscription", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription cancelled", sub)
}

func (h *SubscriptionHandler) Summary(c *gin.Context) {
	summary, err := h.subscriptionService.Summary(c.Request.Context(), middleware.MustGetUserID(c))
	if err != nil {
		response.FromError(c, "failed to build summary", err)
		return
	}
	response.Success(c, http.StatusOK, "summary retrieved", summary)
}

// ========== Admin ==========

func (h *SubscriptionHandler) List(c *gin.Context) {
	var filters subscription.SubscriptionListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.subscriptionService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list subscriptions", err)
		return
	}
	response.Success(c, http.StatusOK, "subscriptions retrieved", result)
}

func (h *SubscriptionHandler) GetAny(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sub, err := h.subscriptionService.GetAny(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get subscription", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

func (h *SubscriptionHandler) ChangeStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req subscription.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	sub, err := h.subscriptionService.ChangeStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.FromError(c, "failed to change status", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription status changed", sub)
}

func (h *SubscriptionHandler) GetStats(c *gin.Context) {
	stats, err := h.subscriptionService.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get subscription stats", err)
		return
	}
	response.Success(c, http.StatusOK, "subscription stats retrieved", stats)
}
