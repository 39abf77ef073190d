package plan_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dealbridge-billing/internal/domain/plan"
	handler "dealbridge-billing/internal/handlers/plan"
	xerrors "dealbridge-billing/internal/pkg/errors"
	"dealbridge-billing/internal/pkg/response"
	"dealbridge-billing/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	validation.Register()
}

type mockService struct{ mock.Mock }

func (m *mockService) CreatePlan(ctx context.Context, req *plan.CreatePlanRequest) (*plan.SubscriptionPlan, error) {
	args := m.Called(req)
	if p := args.Get(0); p != nil {
		return p.(*plan.SubscriptionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) UpdatePlan(ctx context.Context, id int64, req *plan.UpdatePlanRequest) (*plan.SubscriptionPlan, error) {
	args := m.Called(id, req)
	if p := args.Get(0); p != nil {
		return p.(*plan.SubscriptionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) ActivatePlan(ctx context.Context, id int64) error {
	return m.Called(id).Error(0)
}

func (m *mockService) DeactivatePlan(ctx context.Context, id int64) error {
	return m.Called(id).Error(0)
}

func (m *mockService) ListPlans(ctx context.Context, f *plan.PlanListFilters) (*plan.PlanListResponse, error) {
	args := m.Called(f)
	return args.Get(0).(*plan.PlanListResponse), args.Error(1)
}

func (m *mockService) GetStats(ctx context.Context) (*plan.PlanStats, error) {
	args := m.Called()
	return args.Get(0).(*plan.PlanStats), args.Error(1)
}

func (m *mockService) GetPlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	args := m.Called(id)
	if p := args.Get(0); p != nil {
		return p.(*plan.SubscriptionPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) GetActivePlan(ctx context.Context, id int64) (*plan.SubscriptionPlan, error) {
	return m.GetPlan(ctx, id)
}

func (m *mockService) ListAvailable(ctx context.Context, userType plan.UserType, country string, f *plan.PlanListFilters) (*plan.PlanListResponse, error) {
	args := m.Called(userType, country)
	return args.Get(0).(*plan.PlanListResponse), args.Error(1)
}

func (m *mockService) Quote(ctx context.Context, planID int64, req *plan.PriceQuoteRequest) (*plan.PriceQuote, error) {
	args := m.Called(planID, req)
	if q := args.Get(0); q != nil {
		return q.(*plan.PriceQuote), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(svc *mockService) *gin.Engine {
	h := handler.NewPlanHandler(svc)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", "u-1")
		c.Set("user_type", "Investor")
		c.Set("country", "Kenya")
	})
	r.POST("/plans", h.CreatePlan)
	r.GET("/plans", h.ListAvailable)
	r.GET("/plans/:id", h.GetActivePlan)
	r.POST("/plans/:id/quote", h.Quote)
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

func TestCreatePlan(t *testing.T) {
	svc := &mockService{}
	svc.On("CreatePlan", mock.MatchedBy(func(r *plan.CreatePlanRequest) bool {
		return r.Name == "Pro" && r.Price.Equal(decimal.NewFromInt(100))
	})).Return(&plan.SubscriptionPlan{ID: 1, PlanCode: "pro-kenya"}, nil)

	w, resp := do(newRouter(svc), http.MethodPost, "/plans",
		`{"name":"Pro","price":"100","currency":"USD","interval":"monthly","user_type":"Investor","country":"Kenya"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, resp.Success)
	svc.AssertExpectations(t)
}

func TestCreatePlanRejectsBadBody(t *testing.T) {
	svc := &mockService{}

	w, resp := do(newRouter(svc), http.MethodPost, "/plans",
		`{"name":"Pro","price":"-5","currency":"USD","interval":"weekly","user_type":"Investor","country":"Kenya"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "Price must be at least 0")
	assert.Contains(t, resp.Error, "Interval must be one of")
	svc.AssertNotCalled(t, "CreatePlan", mock.Anything)
}

func TestListAvailableUsesCallerProfile(t *testing.T) {
	svc := &mockService{}
	svc.On("ListAvailable", plan.UserTypeInvestor, "Kenya").Return(&plan.PlanListResponse{Total: 0}, nil)

	w, _ := do(newRouter(svc), http.MethodGet, "/plans", "")
	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestGetPlanErrors(t *testing.T) {
	svc := &mockService{}
	svc.On("GetPlan", int64(9)).Return(nil, xerrors.ErrNotFound)

	w, _ := do(newRouter(svc), http.MethodGet, "/plans/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(newRouter(svc), http.MethodGet, "/plans/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteCouponRejection(t *testing.T) {
	svc := &mockService{}
	svc.On("Quote", int64(3), mock.Anything).Return(nil, xerrors.ErrCouponInvalid)

	w, resp := do(newRouter(svc), http.MethodPost, "/plans/3/quote", `{"startup_count":2,"coupon_code":"NOPE"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid or expired coupon", resp.Error)
}
