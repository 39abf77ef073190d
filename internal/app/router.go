// internal/app/router.go
package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	countryHandler "dealbridge-billing/internal/handlers/country"
	couponHandler "dealbridge-billing/internal/handlers/coupon"
	ddHandler "dealbridge-billing/internal/handlers/duediligence"
	notifyHandler "dealbridge-billing/internal/handlers/notification"
	planHandler "dealbridge-billing/internal/handlers/plan"
	scoutingHandler "dealbridge-billing/internal/handlers/scoutingfee"
	subscriptionHandler "dealbridge-billing/internal/handlers/subscription"
	webhookHandler "dealbridge-billing/internal/handlers/webhook"
	wsHandler "dealbridge-billing/internal/handlers/websocket"
	"dealbridge-billing/internal/middleware"
)

type Handlers struct {
	NotifHandler        *notifyHandler.NotificationHandler
	PlanHandler         *planHandler.PlanHandler
	CouponHandler       *couponHandler.CouponHandler
	SubscriptionHandler *subscriptionHandler.SubscriptionHandler
	ScoutingFeeHandler  *scoutingHandler.ScoutingFeeHandler
	DueDiligenceHandler *ddHandler.DueDiligenceHandler
	CountryHandler      *countryHandler.CountryHandler
	StripeHandler       *webhookHandler.StripeHandler
	WSHandler           *wsHandler.WebSocketHandler
	AuthMiddleware      *middleware.AuthMiddleware
}

func SetupRouter(r *gin.Engine, h *Handlers) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", h.WSHandler.HandleConnection)

	// Stripe signs the raw body, so the webhook stays outside the API group.
	r.POST("/webhooks/stripe", h.StripeHandler.Handle)

	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": "1.0.0"})
	})

	api.GET("/countries", h.CountryHandler.List)

	auth := api.Group("")
	auth.Use(h.AuthMiddleware.Auth())

	// ==================== Notifications ====================
	notifications := auth.Group("/notifications")
	{
		notifications.GET("", h.NotifHandler.GetNotifications)
		notifications.GET("/count/unread", h.NotifHandler.GetUnreadCount)
		notifications.PUT("/:id/read", h.NotifHandler.MarkAsRead)
		notifications.PUT("/read-all", h.NotifHandler.MarkAllAsRead)
		notifications.DELETE("/:id", h.NotifHandler.DeleteNotification)
	}

	// ==================== Plans ====================
	plans := auth.Group("/plans")
	{
		plans.GET("", h.PlanHandler.ListAvailable)
		plans.GET("/:id", h.PlanHandler.GetActivePlan)
		plans.POST("/:id/quote", h.PlanHandler.Quote)
	}

	// ==================== Coupons ====================
	auth.POST("/coupons/validate", h.CouponHandler.ValidateCoupon)

	// ==================== Subscriptions ====================
	subs := auth.Group("/subscriptions")
	{
		subs.POST("/intent", h.SubscriptionHandler.CreateIntent)
		subs.POST("/confirm", h.SubscriptionHandler.ConfirmIntent)
		subs.GET("", h.SubscriptionHandler.ListMine)
		subs.GET("/summary", h.SubscriptionHandler.Summary)
		subs.GET("/:id", h.SubscriptionHandler.Get)
		subs.PATCH("/:id/quantity", h.SubscriptionHandler.ChangeQuantity)
		subs.POST("/:id/cancel", h.SubscriptionHandler.Cancel)
	}

	// ==================== Scouting Fees ====================
	scouting := auth.Group("/scouting-fees")
	{
		scouting.POST("/quote", h.ScoutingFeeHandler.Quote)
		scouting.POST("/advisor-quote", h.ScoutingFeeHandler.AdvisorQuote)
		scouting.GET("/schedule", h.ScoutingFeeHandler.Schedule)
	}

	// ==================== Due Diligence ====================
	dd := auth.Group("/due-diligence")
	{
		dd.GET("/fees", h.DueDiligenceHandler.ListFees)
		dd.POST("", h.DueDiligenceHandler.Create)
		dd.GET("", h.DueDiligenceHandler.ListMine)
		dd.GET("/:id", h.DueDiligenceHandler.Get)
		dd.POST("/:id/pay", h.DueDiligenceHandler.Pay)
		dd.POST("/:id/confirm", h.DueDiligenceHandler.Confirm)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly()...)
	{
		adminPlans := admin.Group("/plans")
		adminPlans.POST("", h.PlanHandler.CreatePlan)
		adminPlans.GET("", h.PlanHandler.ListPlans)
		adminPlans.GET("/stats", h.PlanHandler.GetStats)
		adminPlans.GET("/:id", h.PlanHandler.GetPlan)
		adminPlans.PUT("/:id", h.PlanHandler.UpdatePlan)
		adminPlans.PUT("/:id/activate", h.PlanHandler.ActivatePlan)
		adminPlans.PUT("/:id/deactivate", h.PlanHandler.DeactivatePlan)

		adminCoupons := admin.Group("/coupons")
		adminCoupons.POST("", h.CouponHandler.CreateCoupon)
		adminCoupons.GET("", h.CouponHandler.ListCoupons)
		adminCoupons.GET("/stats", h.CouponHandler.GetStats)
		adminCoupons.GET("/:id", h.CouponHandler.GetCoupon)
		adminCoupons.PUT("/:id", h.CouponHandler.UpdateCoupon)
		adminCoupons.PUT("/:id/activate", h.CouponHandler.ActivateCoupon)
		adminCoupons.PUT("/:id/deactivate", h.CouponHandler.DeactivateCoupon)
		adminCoupons.DELETE("/:id", h.CouponHandler.DeleteCoupon)

		adminSubs := admin.Group("/subscriptions")
		adminSubs.GET("", h.SubscriptionHandler.List)
		adminSubs.GET("/stats", h.SubscriptionHandler.GetStats)
		adminSubs.GET("/:id", h.SubscriptionHandler.GetAny)
		adminSubs.PUT("/:id/status", h.SubscriptionHandler.ChangeStatus)

		adminScouting := admin.Group("/scouting-fees")
		adminScouting.POST("", h.ScoutingFeeHandler.CreatePair)
		adminScouting.GET("", h.ScoutingFeeHandler.List)
		adminScouting.GET("/:pair_id", h.ScoutingFeeHandler.GetPair)
		adminScouting.PUT("/:pair_id/activate", h.ScoutingFeeHandler.ActivatePair)
		adminScouting.PUT("/:pair_id/deactivate", h.ScoutingFeeHandler.DeactivatePair)
		adminScouting.DELETE("/:pair_id", h.ScoutingFeeHandler.DeletePair)

		adminDD := admin.Group("/due-diligence")
		adminDD.PUT("/fees", h.DueDiligenceHandler.UpsertFee)
		adminDD.GET("", h.DueDiligenceHandler.List)
		adminDD.GET("/:id", h.DueDiligenceHandler.GetAny)
		adminDD.PUT("/:id/complete", h.DueDiligenceHandler.Complete)

		admin.GET("/ws/stats", h.WSHandler.GetStats)
	}
}
