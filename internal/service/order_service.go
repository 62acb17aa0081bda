package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

// OrderRepository описывает зависимости OrderService от слоя хранилища.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from, to string) error
	Complete(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from string, sellerID uuid.UUID, payout decimal.Decimal) error
	ListStalePending(ctx context.Context, maxAge time.Duration, limit int) ([]uuid.UUID, error)
	ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error)
}

// OrderGigRepository отдаёт гиги для создания заказа.
type OrderGigRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

// OrderUserRepository отдаёт пользователей для проверки ролей.
type OrderUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// OrderService инкапсулирует жизненный цикл заказа.
type OrderService struct {
	repo           OrderRepository
	gigs           OrderGigRepository
	users          OrderUserRepository
	commissionRate decimal.Decimal
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(repo OrderRepository, gigs OrderGigRepository, users OrderUserRepository, commissionRate decimal.Decimal) *OrderService {
	return &OrderService{
		repo:           repo,
		gigs:           gigs,
		users:          users,
		commissionRate: commissionRate,
	}
}

// Create создаёт заказ в статусе pending, фиксируя цену тарифа и комиссию.
func (s *OrderService) Create(ctx context.Context, buyerID, gigID uuid.UUID, tier string) (*models.Order, error) {
	buyer, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if !buyer.CanBuy() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "оформлять заказы могут только покупатели")
	}

	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	if !gig.IsPublished {
		return nil, apperror.ErrGigNotFound
	}
	if gig.SellerID == buyerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя заказать собственный гиг")
	}

	amount, ok := gig.PriceForTier(tier)
	if !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "тариф недоступен для этого гига")
	}

	order := &models.Order{
		BuyerID:    buyerID,
		SellerID:   gig.SellerID,
		GigID:      gig.ID,
		Tier:       tier,
		Amount:     amount,
		Commission: amount.Mul(s.commissionRate).Round(2),
		Status:     models.OrderStatusPending,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("order service: create: %w", err)
	}

	return order, nil
}

// Get возвращает заказ его участнику или администратору.
func (s *OrderService) Get(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	if role != models.RoleAdmin && order.BuyerID != userID && order.SellerID != userID {
		return nil, apperror.ErrForbidden
	}

	return order, nil
}

// ListMine возвращает заказы, где пользователь покупатель или продавец.
func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	return s.repo.ListByParticipant(ctx, userID, normalizeLimit(limit), offset)
}

// History возвращает журнал переходов статуса заказа.
func (s *OrderService) History(ctx context.Context, orderID, userID uuid.UUID, role string) ([]models.OrderStatusChange, error) {
	if _, err := s.Get(ctx, orderID, userID, role); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, orderID)
}

// RequestTransition выполняет переход статуса по запросу участника или администратора.
// Легальность ребра и права роли проверяет state machine, атомарность — guarded UPDATE в репозитории.
func (s *OrderService) RequestTransition(ctx context.Context, orderID, userID uuid.UUID, role, newStatus string) (*models.Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}

	actor, err := s.resolveActor(order, userID, role)
	if err != nil {
		return nil, err
	}

	to, err := valueobject.NewOrderStatus(newStatus)
	if err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус заказа")
	}

	from := valueobject.OrderStatus(order.Status)
	if err := valueobject.Transition(from, actor, to); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeConflict,
			fmt.Sprintf("переход %s -> %s недоступен", order.Status, newStatus))
	}

	if to == valueobject.OrderStatusCompleted {
		// Завершение рассчитывает продавца: выплата и смена статуса в одной транзакции
		err = s.repo.Complete(ctx, orderID, &userID, order.Status, order.SellerID, order.Payout())
	} else {
		err = s.repo.UpdateStatus(ctx, orderID, &userID, order.Status, newStatus)
	}
	if err != nil {
		if errors.Is(err, repository.ErrOrderStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "статус заказа уже изменился, повторите запрос")
		}
		return nil, err
	}

	return s.repo.GetByID(ctx, orderID)
}

// ExpireStalePending отменяет pending-заказы старше maxAge.
// Запускается фоновым джобом; гонки с оплатой разрешает guarded UPDATE.
func (s *OrderService) ExpireStalePending(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := s.repo.ListStalePending(ctx, maxAge, 100)
	if err != nil {
		return 0, fmt.Errorf("order service: expire stale: %w", err)
	}

	expired := 0
	for _, id := range ids {
		err := s.repo.UpdateStatus(ctx, id, nil, models.OrderStatusPending, models.OrderStatusCancelled)
		if err != nil {
			if errors.Is(err, repository.ErrOrderStatusConflict) {
				// Заказ успели оплатить, пропускаем
				continue
			}
			logger.Log.WithError(err).WithField("order_id", id).Error("не удалось отменить просроченный заказ")
			continue
		}
		expired++
	}

	return expired, nil
}

// resolveActor определяет роль инициатора относительно конкретного заказа.
func (s *OrderService) resolveActor(order *models.Order, userID uuid.UUID, role string) (valueobject.Actor, error) {
	if role == models.RoleAdmin {
		return valueobject.ActorAdmin, nil
	}
	switch userID {
	case order.BuyerID:
		return valueobject.ActorBuyer, nil
	case order.SellerID:
		return valueobject.ActorSeller, nil
	}
	return "", apperror.ErrForbidden
}
