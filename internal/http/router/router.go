package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/http/handlers"
	"github.com/ignatzorin/marketplace-backend/internal/http/middleware"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	gigHandler *handlers.GigHandler,
	orderHandler *handlers.OrderHandler,
	paymentHandler *handlers.PaymentHandler,
	milestoneHandler *handlers.MilestoneHandler,
	disputeHandler *handlers.DisputeHandler,
	withdrawalHandler *handlers.WithdrawalHandler,
	reviewHandler *handlers.ReviewHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Вебхук провайдера: без авторизации, подпись проверяется по телу
	api.POST("/payments/webhook", paymentHandler.Webhook)

	// Публичный каталог
	api.GET("/gigs", gigHandler.ListGigs)
	api.GET("/gigs/slug/:slug", gigHandler.GetGigBySlug)
	api.GET("/gigs/:id", middleware.UUIDValidator("id"), gigHandler.GetGig)
	api.GET("/sellers/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListSellerReviews)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.POST("/gigs", gigHandler.CreateGig)
		protected.GET("/gigs/my", gigHandler.ListMyGigs)

		protected.POST("/orders", orderHandler.CreateOrder)
		protected.GET("/orders", orderHandler.ListMyOrders)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.GetOrder)
		protected.PATCH("/orders/:id/status", middleware.UUIDValidator("id"), orderHandler.UpdateOrderStatus)
		protected.GET("/orders/:id/history", middleware.UUIDValidator("id"), orderHandler.GetOrderHistory)

		protected.POST("/orders/:id/checkout", middleware.UUIDValidator("id"), paymentHandler.CreateCheckout)
		protected.POST("/orders/:id/pay-wallet", middleware.UUIDValidator("id"), paymentHandler.PayWithWallet)

		protected.GET("/wallet", paymentHandler.GetWallet)
		protected.POST("/wallet/topup", paymentHandler.CreateTopup)

		protected.POST("/orders/:id/milestones", middleware.UUIDValidator("id"), milestoneHandler.CreateMilestone)
		protected.GET("/orders/:id/milestones", middleware.UUIDValidator("id"), milestoneHandler.ListMilestones)
		protected.POST("/orders/:id/milestones/:milestoneID/complete",
			middleware.UUIDValidator("id"), middleware.UUIDValidator("milestoneID"), milestoneHandler.CompleteMilestone)

		protected.POST("/orders/:id/disputes", middleware.UUIDValidator("id"), disputeHandler.RaiseDispute)
		protected.GET("/orders/:id/dispute", middleware.UUIDValidator("id"), disputeHandler.GetOrderDispute)
		protected.GET("/disputes/:id", middleware.UUIDValidator("id"), disputeHandler.GetDispute)

		protected.POST("/orders/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.CreateReview)

		protected.POST("/withdrawals", withdrawalHandler.CreateWithdrawal)
		protected.GET("/withdrawals", withdrawalHandler.ListWithdrawals)
	}

	// Административные маршруты
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.AdminOnly())
	{
		admin.GET("/disputes", disputeHandler.ListOpenDisputes)
		admin.POST("/disputes/:id/resolve", middleware.UUIDValidator("id"), disputeHandler.ResolveDispute)

		admin.GET("/withdrawals", withdrawalHandler.ListPendingWithdrawals)
		admin.POST("/withdrawals/:id/approve", middleware.UUIDValidator("id"), withdrawalHandler.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", middleware.UUIDValidator("id"), withdrawalHandler.RejectWithdrawal)
	}

	return r
}
