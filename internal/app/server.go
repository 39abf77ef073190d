// internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dealbridge-billing/internal/config"
	"dealbridge-billing/internal/db"
	"dealbridge-billing/internal/events"
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
	"dealbridge-billing/internal/payment"
	"dealbridge-billing/internal/pkg/jwt"
	"dealbridge-billing/internal/pkg/session"
	"dealbridge-billing/internal/pkg/validation"
	"dealbridge-billing/internal/repository/postgres"
	countrysvc "dealbridge-billing/internal/service/country"
	couponsvc "dealbridge-billing/internal/service/coupon"
	ddsvc "dealbridge-billing/internal/service/duediligence"
	"dealbridge-billing/internal/service/email"
	notifysvc "dealbridge-billing/internal/service/notification"
	plansvc "dealbridge-billing/internal/service/plan"
	scoutingsvc "dealbridge-billing/internal/service/scoutingfee"
	subscriptionsvc "dealbridge-billing/internal/service/subscription"
	"dealbridge-billing/internal/websocket"
	wsHandlers "dealbridge-billing/internal/websocket/handler"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg config.AppConfig, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{cfg: cfg, engine: gin.New(), logger: logger}
}

// Run serves HTTP and the background workers until ctx is cancelled, then
// drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	logger := s.logger
	validation.Register()

	// ----- PostgreSQL -----
	if err := db.RunMigrations(s.cfg.DatabaseURL); err != nil {
		return err
	}
	pool, err := db.ConnectDB(ctx, db.PostgresConfig{
		URL:             s.cfg.DatabaseURL,
		MaxConns:        20,
		MinConns:        2,
		MaxConnLifetime: time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to postgres")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(ctx, db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		PoolSize: 10,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()
	logger.Info("connected to redis", zap.String("addr", s.cfg.RedisAddr))

	// ----- Event bus -----
	var publisher events.Publisher = events.NewNoopPublisher(logger)
	if s.cfg.AMQPURL != "" {
		rmq, err := events.NewRabbitMQPublisher(s.cfg.AMQPURL, logger)
		if err != nil {
			return err
		}
		publisher = rmq
	} else {
		logger.Warn("AMQP_URL not set, billing events will not be published")
	}
	defer publisher.Close()
	emitter := events.NewEmitter(publisher, logger)

	// ----- Auth -----
	verifier, err := jwt.LoadVerifier(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT verifier: %w", err)
	}
	blacklist := session.NewBlacklist(redisClient)
	rateLimiter := session.NewRateLimiter(redisClient)

	// ----- Collaborators -----
	if s.cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, payment calls will fail")
	}
	payments := payment.NewStripeProvider(s.cfg.StripeSecretKey, s.cfg.Breaker, logger)
	webhooks := payment.NewWebhookVerifier(s.cfg.StripeWebhookSecret)
	countries := countrysvc.NewService(s.cfg.CountriesAPIURL, redisClient, s.cfg.Breaker, logger)

	mailer := email.NewService(redisClient, email.NewSMTPSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFrom,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
	), logger)

	// ----- Repositories -----
	dbWrapper := postgres.NewDB(pool)
	notifyRepo := postgres.NewNotificationRepository(pool)
	planRepo := postgres.NewSubscriptionPlanRepository(pool)
	couponRepo := postgres.NewCouponRepository(pool)
	subscriptionRepo := postgres.NewUserSubscriptionRepository(pool)
	scoutingRepo := postgres.NewScoutingFeeRepository(pool)
	ddRepo := postgres.NewDueDiligenceRepository(pool)

	// ----- WebSocket Hub -----
	hub := websocket.NewHub(verifier, blacklist, logger)

	// ----- Services -----
	notifService := notifysvc.NewNotificationService(notifyRepo, hub, logger)
	hub.RegisterHandler(wsHandlers.NewNotificationHandler(notifService, logger))

	couponService := couponsvc.NewCouponService(couponRepo, planRepo, rateLimiter, couponsvc.ValidateLimit{
		Max:    s.cfg.CouponValidateLimit,
		Window: s.cfg.CouponValidateWindow,
	}, logger)
	planService := plansvc.NewPlanService(planRepo, countries, couponService, logger)
	subscriptionService := subscriptionsvc.NewSubscriptionService(subscriptionsvc.Deps{
		Tx:       dbWrapper,
		Repo:     subscriptionRepo,
		Plans:    planService,
		Coupons:  couponService,
		Redeemer: couponRepo,
		Payments: payments,
		Notifier: notifService,
		Mailer:   mailer,
		Events:   emitter,
		Logger:   logger,
	})
	scoutingService := scoutingsvc.NewScoutingFeeService(dbWrapper, scoutingRepo, countries, logger)
	ddService := ddsvc.NewDueDiligenceService(ddRepo, countries, payments, notifService, mailer, emitter, logger)

	// ----- Handlers -----
	handlers := &Handlers{
		NotifHandler:        notifyHandler.NewNotificationHandler(notifService),
		PlanHandler:         planHandler.NewPlanHandler(planService),
		CouponHandler:       couponHandler.NewCouponHandler(couponService),
		SubscriptionHandler: subscriptionHandler.NewSubscriptionHandler(subscriptionService),
		ScoutingFeeHandler:  scoutingHandler.NewScoutingFeeHandler(scoutingService),
		DueDiligenceHandler: ddHandler.NewDueDiligenceHandler(ddService),
		CountryHandler:      countryHandler.NewCountryHandler(countries),
		StripeHandler:       webhookHandler.NewStripeHandler(webhooks, subscriptionService, ddService, logger),
		WSHandler:           wsHandler.NewWebSocketHandler(hub, s.cfg.AllowedOrigins, logger),
		AuthMiddleware:      middleware.NewAuthMiddleware(verifier, blacklist, logger),
	}

	// ----- Middlewares -----
	ipLimiter := middleware.NewIPRateLimiter(s.cfg.RateLimitRPS, s.cfg.RateLimitBurst, 10*time.Minute)
	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.RequestLogger(logger),
		middleware.CORS(s.cfg.AllowedOrigins),
		middleware.RateLimit(ipLimiter),
	)
	SetupRouter(s.engine, handlers)

	// ----- Background workers -----
	workerCtx, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	for _, run := range []func(context.Context){
		hub.Run,
		mailer.Start,
		ipLimiter.Cleanup,
		func(ctx context.Context) { subscriptionService.RunSweeper(ctx, s.cfg.SweepInterval) },
	} {
		wg.Add(1)
		go func(run func(context.Context)) {
			defer wg.Done()
			run(workerCtx)
		}(run)
	}
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	// ----- Start HTTP -----
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("billing service listening", zap.String("addr", s.cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
