// internal/handlers/duediligence/due_diligence_handler.go
package duediligence

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/duediligence"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/pkg/response"
)

type DueDiligenceService interface {
	UpsertFee(ctx context.Context, req *duediligence.UpsertFeeRequest) (*duediligence.Fee, error)
	ListFees(ctx context.Context) ([]duediligence.Fee, error)
	Create(ctx context.Context, userID string, req *duediligence.CreateRequest) (*duediligence.Request, error)
	Pay(ctx context.Context, userID, userEmail string, id int64) (*duediligence.PaymentResponse, error)
	Confirm(ctx context.Context, userID string, id int64) (*duediligence.Request, error)
	Complete(ctx context.Context, id int64) (*duediligence.Request, error)
	Get(ctx context.Context, userID string, id int64) (*duediligence.Request, error)
	GetAny(ctx context.Context, id int64) (*duediligence.Request, error)
	ListMine(ctx context.Context, userID string, filters *duediligence.ListFilters) (*duediligence.ListResponse, error)
	List(ctx context.Context, filters *duediligence.ListFilters) (*duediligence.ListResponse, error)
}

type DueDiligenceHandler struct {
	dueDiligenceService DueDiligenceService
}

func NewDueDiligenceHandler(dueDiligenceService DueDiligenceService) *DueDiligenceHandler {
	return &DueDiligenceHandler{dueDiligenceService: dueDiligenceService}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid request ID", err)
		return 0, false
	}
	return id, true
}

// ========== Fees ==========

func (h *DueDiligenceHandler) UpsertFee(c *gin.Context) {
	var req duediligence.UpsertFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	fee, err := h.dueDiligenceService.UpsertFee(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to save fee", err)
		return
	}
	response.Success(c, http.StatusOK, "fee saved", fee)
}

func (h *DueDiligenceHandler) ListFees(c *gin.Context) {
	fees, err := h.dueDiligenceService.ListFees(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to list fees", err)
		return
	}
	response.Success(c, http.StatusOK, "fees retrieved", fees)
}

// ========== Requests ==========

func (h *DueDiligenceHandler) Create(c *gin.Context) {
	var req duediligence.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	d, err := h.dueDiligenceService.Create(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to create request", err)
		return
	}
	response.Success(c, http.StatusCreated, "due diligence requested", d)
}

func (h *DueDiligenceHandler) Pay(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	result, err := h.dueDiligenceService.Pay(c.Request.Context(), middleware.MustGetUserID(c), middleware.GetEmail(c), id)
	if err != nil {
		response.FromError(c, "failed to start payment", err)
		return
	}
	response.Success(c, http.StatusOK, "payment intent ready", result)
}

func (h *DueDiligenceHandler) Confirm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.dueDiligenceService.Confirm(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		response.FromError(c, "failed to confirm payment", err)
		return
	}
	response.Success(c, http.StatusOK, "payment status recorded", d)
}

func (h *DueDiligenceHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.dueDiligenceService.Get(c.Request.Context(), middleware.MustGetUserID(c), id)
	if err != nil {
		response.FromError(c, "failed to get request", err)
		return
	}
	response.Success(c, http.StatusOK, "request retrieved", d)
}

func (h *DueDiligenceHandler) ListMine(c *gin.Context) {
	var filters duediligence.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.dueDiligenceService.ListMine(c.Request.Context(), middleware.MustGetUserID(c), &filters)
	if err != nil {
		response.FromError(c, "failed to list requests", err)
		return
	}
	response.Success(c, http.StatusOK, "requests retrieved", result)
}

// ========== Admin ==========

func (h *DueDiligenceHandler) List(c *gin.Context) {
	var filters duediligence.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.dueDiligenceService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list requests", err)
		return
	}
	response.Success(c, http.StatusOK, "requests retrieved", result)
}

func (h *DueDiligenceHandler) GetAny(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.dueDiligenceService.GetAny(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get request", err)
		return
	}
	response.Success(c, http.StatusOK, "request retrieved", d)
}

func (h *DueDiligenceHandler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	d, err := h.dueDiligenceService.Complete(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to complete request", err)
		return
	}
	response.Success(c, http.StatusOK, "request completed", d)
}
