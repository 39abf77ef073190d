package coupon_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dealbridge-billing/internal/domain/coupon"
	handler "dealbridge-billing/internal/handlers/coupon"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/response"
	"dealbridge-billing/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

type mockService struct {
	handler.CouponService
	mock.Mock
}

func (m *mockService) Validate(_ context.Context, userID string, req *coupon.ValidateCouponRequest) (*coupon.ValidateCouponResponse, error) {
	args := m.Called(userID, req.Code, req.PlanID)
	if r := args.Get(0); r != nil {
		return r.(*coupon.ValidateCouponResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetCoupon(_ context.Context, id int64) (*coupon.DiscountCoupon, error) {
	args := m.Called(id)
	if c := args.Get(0); c != nil {
		return c.(*coupon.DiscountCoupon), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) DeleteCoupon(_ context.Context, id int64) error {
	return m.Called(id).Error(0)
}

func newRouter(svc *mockService) *gin.Engine {
	h := handler.NewCouponHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", "u-1") })
	r.POST("/coupons/validate", h.ValidateCoupon)
	r.GET("/coupons/:id", h.GetCoupon)
	r.DELETE("/coupons/:id", h.DeleteCoupon)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestValidateCoupon(t *testing.T) {
	svc := &mockService{}
	svc.On("Validate", "u-1", "LAUNCH", int64(3)).Return(&coupon.ValidateCouponResponse{
		Valid: true, Code: "LAUNCH", FinalPrice: decimal.NewFromInt(75), RemainingUses: 7,
	}, nil)

	w, resp := do(newRouter(svc), http.MethodPost, "/coupons/validate", `{"code":"LAUNCH","plan_id":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"remaining_uses":7`)
	svc.AssertExpectations(t)
}

func TestValidateCouponRejections(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"invalid", fmt.Errorf("lookup: %w", xerrors.ErrCouponInvalid), http.StatusBadRequest, "invalid or expired coupon"},
		{"rate limited", xerrors.ErrRateLimited, http.StatusTooManyRequests, "too many requests"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("Validate", "u-1", "LAUNCH", int64(3)).Return(nil, tc.err)

			w, resp := do(newRouter(svc), http.MethodPost, "/coupons/validate", `{"code":"LAUNCH","plan_id":3}`)
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Error)
		})
	}
}

func TestValidateCouponRequiresPlan(t *testing.T) {
	svc := &mockService{}

	w, resp := do(newRouter(svc), http.MethodPost, "/coupons/validate", `{"code":"LAUNCH"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, resp.Error, "PlanID is required")
	svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetCoupon(t *testing.T) {
	svc := &mockService{}
	svc.On("GetCoupon", int64(7)).Return(&coupon.DiscountCoupon{ID: 7, Code: "LAUNCH", MaxUses: 10, UsedCount: 4}, nil)
	svc.On("GetCoupon", int64(8)).Return(nil, xerrors.ErrNotFound)

	w, resp := do(newRouter(svc), http.MethodGet, "/coupons/7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), `"remaining_uses":6`)

	w, _ = do(newRouter(svc), http.MethodGet, "/coupons/8", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(newRouter(svc), http.MethodGet, "/coupons/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUsedCouponConflicts(t *testing.T) {
	svc := &mockService{}
	svc.On("DeleteCoupon", int64(7)).Return(fmt.Errorf("%w: coupon has been used 3 times; deactivate it instead", xerrors.ErrConflict))

	w, resp := do(newRouter(svc), http.MethodDelete, "/coupons/7", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, resp.Error, "deactivate it instead")
}
