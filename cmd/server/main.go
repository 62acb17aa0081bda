package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/config"
	"github.com/ignatzorin/marketplace-backend/internal/db"
	"github.com/ignatzorin/marketplace-backend/internal/gateway"
	"github.com/ignatzorin/marketplace-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/marketplace-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/marketplace-backend/internal/http/router"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/service"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	gatewayClient := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayWebhookSecret)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	gigRepo := repository.NewGigRepository(dbConn)
	orderRepo := repository.NewOrderRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	milestoneRepo := repository.NewMilestoneRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	withdrawalRepo := repository.NewWithdrawalRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	gigService := service.NewGigService(gigRepo, userRepo)
	orderService := service.NewOrderService(orderRepo, gigRepo, userRepo, cfg.CommissionRate)
	paymentService := service.NewPaymentService(paymentRepo, orderRepo, userRepo, gatewayClient)
	milestoneService := service.NewMilestoneService(milestoneRepo, orderRepo)
	disputeService := service.NewDisputeService(disputeRepo, orderRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, userRepo)
	reviewService := service.NewReviewService(reviewRepo, orderRepo)

	// Фоновая отмена неоплаченных заказов.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(cfg.ReaperInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				expired, err := orderService.ExpireStalePending(ctx, cfg.PendingOrderMaxAge)
				if err != nil {
					logger.Log.WithError(err).Error("main: отмена просроченных заказов")
					continue
				}
				if expired > 0 {
					logger.Log.WithField("expired", expired).Info("main: отменены просроченные заказы")
				}
			}
		}
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService)
	gigHandler := httpHandlers.NewGigHandler(gigService)
	orderHandler := httpHandlers.NewOrderHandler(orderService)
	paymentHandler := httpHandlers.NewPaymentHandler(paymentService)
	milestoneHandler := httpHandlers.NewMilestoneHandler(milestoneService)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService)
	withdrawalHandler := httpHandlers.NewWithdrawalHandler(withdrawalService)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, gigHandler, orderHandler, paymentHandler,
		milestoneHandler, disputeHandler, withdrawalHandler, reviewHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("main: ошибка закрытия соединения с базой: %v", err)
	}
}
