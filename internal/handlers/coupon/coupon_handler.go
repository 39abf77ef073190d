// internal/handlers/coupon/coupon_handler.go
package coupon

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dealbridge-billing/internal/domain/coupon"
	"dealbridge-billing/internal/middleware"
	"dealbridge-billing/internal/pkg/response"
)

type CouponService interface {
	CreateCoupon(ctx context.Context, createdBy string, req *coupon.CreateCouponRequest) (*coupon.DiscountCoupon, error)
	UpdateCoupon(ctx context.Context, id int64, req *coupon.UpdateCouponRequest) (*coupon.DiscountCoupon, error)
	ActivateCoupon(ctx context.Context, id int64) error
	DeactivateCoupon(ctx context.Context, id int64) error
	DeleteCoupon(ctx context.Context, id int64) error
	GetCoupon(ctx context.Context, id int64) (*coupon.DiscountCoupon, error)
	ListCoupons(ctx context.Context, filters *coupon.CouponListFilters) (*coupon.CouponListResponse, error)
	GetStats(ctx context.Context) (*coupon.CouponStats, error)
	Validate(ctx context.Context, userID string, req *coupon.ValidateCouponRequest) (*coupon.ValidateCouponResponse, error)
}

type CouponHandler struct {
	couponService CouponService
}

func NewCouponHandler(couponService CouponService) *CouponHandler {
	return &CouponHandler{couponService: couponService}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.ValidationError(c, "invalid coupon ID", err)
		return 0, false
	}
	return id, true
}

func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req coupon.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	cp, err := h.couponService.CreateCoupon(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "failed to create coupon", err)
		return
	}
	response.Success(c, http.StatusCreated, "coupon created", cp)
}

func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req coupon.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	cp, err := h.couponService.UpdateCoupon(c.Request.Context(), id, &req)
	if err != nil {
		response.FromError(c, "failed to update coupon", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon updated", cp)
}

func (h *CouponHandler) ActivateCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.couponService.ActivateCoupon(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to activate coupon", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon activated", nil)
}

func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.couponService.DeactivateCoupon(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to deactivate coupon", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon deactivated", nil)
}

func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.couponService.DeleteCoupon(c.Request.Context(), id); err != nil {
		response.FromError(c, "failed to delete coupon", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon deleted", nil)
}

func (h *CouponHandler) GetCoupon(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cp, err := h.couponService.GetCoupon(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, "failed to get coupon", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon retrieved", cp)
}

func (h *CouponHandler) ListCoupons(c *gin.Context) {
	var filters coupon.CouponListFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		response.BindError(c, "invalid query parameters", err)
		return
	}

	result, err := h.couponService.ListCoupons(c.Request.Context(), &filters)
	if err != nil {
		response.FromError(c, "failed to list coupons", err)
		return
	}
	response.Success(c, http.StatusOK, "coupons retrieved", result)
}

func (h *CouponHandler) GetStats(c *gin.Context) {
	stats, err := h.couponService.GetStats(c.Request.Context())
	if err != nil {
		response.FromError(c, "failed to get coupon stats", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon stats retrieved", stats)
}

// ValidateCoupon checks a code against a plan for the caller. Every
// rejection reads the same.
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	var req coupon.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, "invalid request body", err)
		return
	}

	result, err := h.couponService.Validate(c.Request.Context(), middleware.MustGetUserID(c), &req)
	if err != nil {
		response.FromError(c, "coupon rejected", err)
		return
	}
	response.Success(c, http.StatusOK, "coupon is valid", result)
}
