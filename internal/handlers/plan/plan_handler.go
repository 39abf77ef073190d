// internal/handlers/plan/plan_handler.go
package plan

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/plan"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/pkg/response"
)

type PlanService interface {
	CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id int64, req *plan.UpdatePlanRequest) (*plan.SubscriptionPlan, error)
	ActivatePlan(ctx context.Context, id int64) error
	DeactivatePlan(ctx context.Context, id int64) error
	ListPlans(ctx context.Context, filters *plan.PlanListFilters) (*plan.PlanListResponse, error)
	GetStats(ctx context.Context) (*plan.PlanStats, error)
	GetPlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
	GetActivePlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error)
	ListAvailable(ctx context.Context, userType plan.UserType, country string, filters *plan.PlanListFilters) (*plan.PlanListResponse, error)
	Quote(ctx context.Context, planID int64, req *plan.PriceQuoteRequest) (*plan.PriceQuote, error)
}

type PlanHandler struct {
	planService PlanService
}

func NewPlanHandler(planService PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid plan ID", err)
		return 0, false
	}
	return id, true
}

// ========== Admin ==========

func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req plan.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, err := h.planService.CreatePlan(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create plan", err)
		return
	}
	response.Success(c, http.StatusCreated, "plan created", p)
}

func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req plan.UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	p, err := h.planService.UpdatePlan(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan updated", p)
}

func (h *PlanHandler) ActivatePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.planService.ActivatePlan(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to activate plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan activated", nil)
}

func (h *PlanHandler) DeactivatePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.planService.DeactivatePlan(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to deactivate plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan deactivated", nil)
}

func (h *PlanHandler) ListPlans(c *gin.Context) {
	var filters plan.PlanListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.planService.ListPlans(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}
	response.Success(c, http.StatusOK, "plans retrieved", result)
}

func (h *PlanHandler) GetStats(c *gin.Context) {
	stats, err := h.planService.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get plan stats", err)
		return
	}
	response.Success(c, http.StatusOK, "plan stats retrieved", stats)
}

func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.planService.GetPlan(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan retrieved", p)
}

// ========== Users ==========

// ListAvailable lists active plans for the caller's account type and country.
func (h *PlanHandler) ListAvailable(c *gin.Context) {
	var filters plan.PlanListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	userType := plan.UserType(middleware.GetUserType(c))
	result, err := h.planService.ListAvailable(c.Request.Context(), userType, middleware.GetCountry(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list plans", err)
		return
	}
	response.Success(c, http.StatusOK, "plans retrieved", result)
}

func (h *PlanHandler) GetActivePlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.planService.GetActivePlan(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get plan", err)
		return
	}
	response.Success(c, http.StatusOK, "plan retrieved", p)
}

func (h *PlanHandler) Quote(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req plan.PriceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	q, err := h.planService.Quote(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to quote price", err)
		return
	}
	response.Success(c, http.StatusOK, "price quoted", q)
}
