// internal/handlers/scoutingfee/scouting_fee_handler.go
package scoutingfee

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/scoutingfee"
	"dealbridge-billing/internal/pkg/response"
	"dealbridge-billing/internal/pricing"
)

type ScoutingFeeService interface {
	Quote(ctx context.Context, req *scoutingfee.QuoteRequest) (*scoutingfee.Quote, error)
	AdvisorQuote(req *scoutingfee.AdvisorQuoteRequest) (*scoutingfee.AdvisorQuote, error)
	Schedule(ctx context.Context, country string, role pricing.Role) ([]pricing.Band, bool, error)
	CreatePair(ctx context.Context, req *scoutingfee.CreatePairRequest) (*scoutingfee.Pair, error)
	GetPair(ctx context.Context, pairID string) (*scoutingfee.Pair, error)
	ActivatePair(ctx context.Context, pairID string) error
	DeactivatePair(ctx context.Context, pairID string) error
	DeletePair(ctx context.Context, pairID string) error
	List(ctx context.Context, filters *scoutingfee.ListFilters) ([]scoutingfee.Config, error)
}

type ScoutingFeeHandler struct {
	scoutingFeeService ScoutingFeeService
}

func NewScoutingFeeHandler(scoutingFeeService ScoutingFeeService) *ScoutingFeeHandler {
	return &ScoutingFeeHandler{scoutingFeeService: scoutingFeeService}
}

// ========== Quotes ==========

func (h *ScoutingFeeHandler) Quote(c *gin.Context) {
	var req scoutingfee.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	q, err := h.scoutingFeeService.Quote(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to quote scouting fee", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fee quoted", q)
}

func (h *ScoutingFeeHandler) AdvisorQuote(c *gin.Context) {
	var req scoutingfee.AdvisorQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	q, err := h.scoutingFeeService.AdvisorQuote(&req)
	if err != nil {
		response.FromError(c, "failed to quote advisor fee", err)
		return
	}
	response.Success(c, http.StatusOK, "advisor fee quoted", q)
}

type scheduleQuery struct {
	Country  string       `form:"country" binding:"required"`
	UserType pricing.Role `form:"user_type" binding:"required,oneof=Investor Startup"`
}

// Schedule returns the bands in force for a country and side.
func (h *ScoutingFeeHandler) Schedule(c *gin.Context) {
	var q scheduleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	bands, configured, err := h.scoutingFeeService.Schedule(c.Request.Context(), q.Country, q.UserType)
	if err != nil {
		response.FromError(c, "failed to load schedule", err)
		return
	}

	out := make([]scoutingfee.BandInput, 0, len(bands))
	for _, b := range bands {
		out = append(out, scoutingfee.BandInput{MinAmount: b.Min, MaxAmount: b.Max, FeeType: b.FeeType, FeeValue: b.Value})
	}
	source := scoutingfee.SourceDefault
	if configured {
		source = scoutingfee.SourceConfigured
	}
	response.Success(c, http.StatusOK, "schedule retrieved", gin.H{
		"bands":  out,
		"source": source,
	})
}

// ========== Admin ==========

func (h *ScoutingFeeHandler) CreatePair(c *gin.Context) {
	var req scoutingfee.CreatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	pair, err := h.scoutingFeeService.CreatePair(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create scouting fee", err)
		return
	}
	response.Success(c, http.StatusCreated, "scouting fee created", pair)
}

func (h *ScoutingFeeHandler) GetPair(c *gin.Context) {
	pair, err := h.scoutingFeeService.GetPair(c.Request.Context(), c.Param("pair_id"))
	if err != nil {
		response.FromError(c, "failed to get scouting fee", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fee retrieved", pair)
}

func (h *ScoutingFeeHandler) ActivatePair(c *gin.Context) {
	if err := h.scoutingFeeService.ActivatePair(c.Request.Context(), c.Param("pair_id")); err != nil {
		response.FromError(c, "failed to activate scouting fee", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fee activated", nil)
}

func (h *ScoutingFeeHandler) DeactivatePair(c *gin.Context) {
	if err := h.scoutingFeeService.DeactivatePair(c.Request.Context(), c.Param("pair_id")); err != nil {
		response.FromError(c, "failed to deactivate scouting fee", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fee deactivated", nil)
}

func (h *ScoutingFeeHandler) DeletePair(c *gin.Context) {
	if err := h.scoutingFeeService.DeletePair(c.Request.Context(), c.Param("pair_id")); err != nil {
		response.FromError(c, "failed to delete scouting fee", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fee deleted", nil)
}

func (h *ScoutingFeeHandler) List(c *gin.Context) {
	var filters scoutingfee.ListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	configs, err := h.scoutingFeeService.List(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list scouting fees", err)
		return
	}
	response.Success(c, http.StatusOK, "scouting fees retrieved", configs)
}
