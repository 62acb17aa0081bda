package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/gateway"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// PaymentRepository описывает зависимости PaymentService от слоя хранилища.
type PaymentRepository interface {
	PayOrderWithWallet(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Payment, error)
	ApplyOrderPayment(ctx context.Context, externalID string, orderID uuid.UUID) (bool, error)
	TopUpWallet(ctx context.Context, externalID string, userID uuid.UUID, amount decimal.Decimal) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error)
}

// PaymentOrderRepository отдаёт заказы для создания чекаута.
type PaymentOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// PaymentUserRepository отдаёт баланс кошелька.
type PaymentUserRepository interface {
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// Wallet агрегирует баланс и последние движения средств пользователя.
type Wallet struct {
	Balance  decimal.Decimal  `json:"balance"`
	Payments []models.Payment `json:"payments"`
}

// PaymentService инкапсулирует оплату заказов, пополнения и обработку вебхуков.
type PaymentService struct {
	repo    PaymentRepository
	orders  PaymentOrderRepository
	users   PaymentUserRepository
	gateway gateway.Client
}

// NewPaymentService создаёт платёжный сервис.
func NewPaymentService(repo PaymentRepository, orders PaymentOrderRepository, users PaymentUserRepository, gw gateway.Client) *PaymentService {
	return &PaymentService{
		repo:    repo,
		orders:  orders,
		users:   users,
		gateway: gw,
	}
}

// CreateCheckout создаёт сессию внешней оплаты pending-заказа.
func (s *PaymentService) CreateCheckout(ctx context.Context, orderID, buyerID uuid.UUID) (*gateway.CheckoutSession, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperror.New(apperror.ErrCodeConflict, "заказ уже оплачен или отменён")
	}

	session, err := s.gateway.CreateCheckout(ctx, order.Amount, "usd", map[string]string{
		gateway.MetaOrderID: order.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("payment service: checkout: %w", err)
	}

	return session, nil
}

// CreateTopup создаёт сессию пополнения кошелька.
func (s *PaymentService) CreateTopup(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*gateway.CheckoutSession, error) {
	amount, err := valueobject.NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateTopupAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	session, err := s.gateway.CreateCheckout(ctx, amount, "usd", map[string]string{
		gateway.MetaType:   gateway.MetaTypeWalletTopup,
		gateway.MetaUserID: userID.String(),
		gateway.MetaAmount: amount.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("payment service: topup checkout: %w", err)
	}

	return session, nil
}

// PayWithWallet оплачивает pending-заказ с кошелька покупателя.
func (s *PaymentService) PayWithWallet(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.PayOrderWithWallet(ctx, orderID, buyerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			return nil, apperror.ErrOrderNotFound
		case errors.Is(err, repository.ErrOrderNotPayable):
			return nil, apperror.New(apperror.ErrCodeConflict, "заказ недоступен для оплаты")
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, apperror.New(apperror.ErrCodeConflict, "недостаточно средств на кошельке")
		}
		return nil, err
	}
	return payment, nil
}

// HandleWebhook проверяет подпись события провайдера и применяет его.
// Повторная доставка того же события — no-op с успешным ответом.
func (s *PaymentService) HandleWebhook(ctx context.Context, rawBody []byte, signature string) error {
	event, err := s.gateway.VerifyAndDecode(rawBody, signature)
	if err != nil {
		return err
	}

	if event.Type != gateway.EventCheckoutCompleted {
		logger.Log.WithField("event_type", event.Type).Debug("вебхук: событие пропущено")
		return nil
	}

	if event.Metadata[gateway.MetaType] == gateway.MetaTypeWalletTopup {
		return s.applyTopup(ctx, event)
	}
	return s.applyOrderPayment(ctx, event)
}

// Wallet возвращает баланс и последние движения пользователя.
func (s *PaymentService) Wallet(ctx context.Context, userID uuid.UUID, limit, offset int) (*Wallet, error) {
	balance, err := s.users.GetWalletBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}

	payments, err := s.repo.ListByUser(ctx, userID, normalizeLimit(limit), offset)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		Balance:  balance,
		Payments: payments,
	}, nil
}

func (s *PaymentService) applyOrderPayment(ctx context.Context, event *gateway.Event) error {
	orderID, err := uuid.Parse(event.Metadata[gateway.MetaOrderID])
	if err != nil {
		return fmt.Errorf("payment service: webhook: некорректный order_id: %w", gateway.ErrInvalidPayload)
	}

	applied, err := s.repo.ApplyOrderPayment(ctx, event.ID, orderID)
	if err != nil {
		return fmt.Errorf("payment service: webhook: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"order_id": orderID,
		"applied":  applied,
	}).Info("вебхук: оплата заказа обработана")

	return nil
}

func (s *PaymentService) applyTopup(ctx context.Context, event *gateway.Event) error {
	userID, err := uuid.Parse(event.Metadata[gateway.MetaUserID])
	if err != nil {
		return fmt.Errorf("payment service: webhook: некорректный user_id: %w", gateway.ErrInvalidPayload)
	}

	amount := event.Amount
	if raw, ok := event.Metadata[gateway.MetaAmount]; ok {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || !parsed.IsPositive() {
			return fmt.Errorf("payment service: webhook: некорректная сумма: %w", gateway.ErrInvalidPayload)
		}
		amount = parsed
	}
	if !amount.IsPositive() {
		return fmt.Errorf("payment service: webhook: некорректная сумма: %w", gateway.ErrInvalidPayload)
	}

	applied, err := s.repo.TopUpWallet(ctx, event.ID, userID, amount)
	if err != nil {
		return fmt.Errorf("payment service: webhook: %w", err)
	}

	logger.Log.WithFields(map[string]interface{}{
		"event_id": event.ID,
		"user_id":  userID,
		"applied":  applied,
	}).Info("вебхук: пополнение кошелька обработано")

	return nil
}
