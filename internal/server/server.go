package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"serviceconnect/internal/auth"
	"serviceconnect/internal/booking"
	"serviceconnect/internal/catalog"
	"serviceconnect/internal/chat"
	"serviceconnect/internal/config"
	"serviceconnect/internal/email"
	"serviceconnect/internal/logger"
	"serviceconnect/internal/notify"
	"serviceconnect/internal/payment"
	"serviceconnect/internal/review"
	"serviceconnect/internal/upload"
	"serviceconnect/internal/user"
	"serviceconnect/internal/wallet"
	"serviceconnect/internal/walletrequest"
)

// Deps are the process level resources the routes are built from.
// Email may be nil, in which case notifications are dropped.
type Deps struct {
	DB      *sqlx.DB
	Config  *config.Config
	Issuer  *auth.Issuer
	Email   *email.Service
	Uploads *upload.LocalStore
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

func New(deps Deps) *Server {
	cfg := deps.Config

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())
	if cfg.RateLimitRPS > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	database := deps.DB

	walletRepo := wallet.NewRepository(database)
	ledger := wallet.NewLedger(walletRepo)
	catalogRepo := catalog.NewRepository(database)
	userRepo := user.NewRepository(database, walletRepo, catalogRepo)
	bookingRepo := booking.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	var notifier notify.Notifier = notify.Nop{}
	if deps.Email != nil {
		notifier = notify.NewDispatcher(userRepo, deps.Email)
	}

	userHandler := user.NewHandler(user.NewService(userRepo, deps.Issuer, cfg.AdminEmail))
	catalogHandler := catalog.NewHandler(catalog.NewService(catalogRepo))
	walletHandler := wallet.NewHandler(walletRepo, ledger)
	requestHandler := walletrequest.NewHandler(
		walletrequest.NewService(database, walletrequest.NewRepository(database), walletRepo, ledger, deps.Uploads, notifier),
		deps.Uploads.MaxBytes(),
	)
	bookingHandler := booking.NewHandler(booking.NewService(database, bookingRepo, catalogRepo, notifier))
	paymentHandler := payment.NewHandler(payment.NewService(database, paymentRepo, bookingRepo, ledger, notifier))
	reviewHandler := review.NewHandler(review.NewService(database, review.NewRepository(database), bookingRepo, paymentRepo, notifier))
	chatHandler := chat.NewHandler(chat.NewService(chat.NewRepository(database), bookingRepo))
	system := NewSystemHandler(database, deps.Email)

	router.GET("/health", system.Health)
	router.GET("/metrics", Metrics())
	router.Static(upload.URLPrefix, deps.Uploads.Dir())
	SetupSwagger(router)

	public := router.Group("/")
	{
		public.POST("/auth/register", userHandler.Register)
		public.POST("/auth/login", userHandler.Login)
		public.POST("/auth/refresh", userHandler.Refresh)
		public.GET("/services", catalogHandler.ListServices)
		public.GET("/providers", catalogHandler.SearchProviders)
		public.GET("/providers/:providerID", catalogHandler.GetProvider)
		public.GET("/providers/:providerID/reviews", reviewHandler.ListByProvider)
	}

	authMiddleware := auth.AuthMiddleware(deps.Issuer)
	customerOnly := auth.RequireRole(auth.RoleCustomer)
	providerOnly := auth.RequireRole(auth.RoleProvider)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", userHandler.Me)

		protected.GET("/wallet", walletHandler.GetWallet)
		protected.GET("/wallet/transactions", walletHandler.ListTransactions)
		protected.GET("/wallet/requests", requestHandler.ListMine)
		protected.POST("/customer/wallet/deposit-request", customerOnly, requestHandler.SubmitDeposit)
		protected.POST("/provider/wallet/withdraw-request", providerOnly, requestHandler.SubmitWithdrawal)

		protected.PUT("/provider/profile", providerOnly, catalogHandler.UpdateProfile)

		protected.POST("/bookings", customerOnly, bookingHandler.Create)
		protected.GET("/bookings", bookingHandler.List)
		protected.GET("/bookings/:bookingID", bookingHandler.Get)
		protected.PUT("/bookings/:bookingID", providerOnly, bookingHandler.UpdateStatus)
		protected.PUT("/bookings/:bookingID/confirm-price", customerOnly, bookingHandler.ConfirmPrice)
		protected.GET("/bookings/:bookingID/messages", chatHandler.List)
		protected.POST("/bookings/:bookingID/messages", chatHandler.Send)
		protected.GET("/chat/unread", chatHandler.Unread)

		protected.POST("/payments", customerOnly, paymentHandler.Settle)
		protected.GET("/payments", paymentHandler.List)

		protected.POST("/reviews", customerOnly, reviewHandler.Submit)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleAdmin))
	{
		admin.POST("/services", catalogHandler.CreateService)
		admin.GET("/wallet-requests", requestHandler.ListForAdmin)
		admin.PUT("/wallet-requests/:requestID/approve", requestHandler.Approve)
		admin.PUT("/wallet-requests/:requestID/reject", requestHandler.Reject)
		admin.GET("/wallets/:userID/reconcile", walletHandler.Reconcile)
		admin.GET("/bookings", bookingHandler.List)
		admin.GET("/bookings/stats", bookingHandler.Stats)
		admin.GET("/email/queue", system.EmailQueue)
	}

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start() error {
	logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, x-auth-token, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
