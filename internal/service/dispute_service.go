package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// DisputeRepository описывает зависимости DisputeService от слоя хранилища.
type DisputeRepository interface {
	CreateWithTransition(ctx context.Context, d *models.Dispute, fromStatus string) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	Resolve(ctx context.Context, disputeID, resolvedBy uuid.UUID, outcome, notes string) error
}

// DisputeOrderRepository отдаёт заказы для проверок доступа.
type DisputeOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// DisputeService инкапсулирует открытие и разрешение споров.
type DisputeService struct {
	repo   DisputeRepository
	orders DisputeOrderRepository
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(repo DisputeRepository, orders DisputeOrderRepository) *DisputeService {
	return &DisputeService{
		repo:   repo,
		orders: orders,
	}
}

// Raise открывает спор по заказу. Доступно только покупателю
// из статусов active и delivered; заказ переводится в disputed атомарно.
func (s *DisputeService) Raise(ctx context.Context, orderID, buyerID uuid.UUID, reason string) (*models.Dispute, error) {
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

	if err := validation.ValidateDisputeReason(reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	from := valueobject.OrderStatus(order.Status)
	if err := valueobject.Transition(from, valueobject.ActorBuyer, valueobject.OrderStatusDisputed); err != nil {
		return nil, apperror.New(apperror.ErrCodeConflict,
			fmt.Sprintf("спор нельзя открыть из статуса %s", order.Status))
	}

	d := &models.Dispute{
		OrderID:    orderID,
		RaisedByID: buyerID,
		Reason:     reason,
		Status:     models.DisputeStatusOpen,
	}

	if err := s.repo.CreateWithTransition(ctx, d, order.Status); err != nil {
		if errors.Is(err, repository.ErrOrderStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeConflict, "статус заказа уже изменился, повторите запрос")
		}
		return nil, fmt.Errorf("dispute service: raise: %w", err)
	}

	return d, nil
}

// Resolve закрывает спор решением администратора.
// favor_buyer возвращает покупателю полную сумму, favor_seller выплачивает продавцу.
// Повторная резолюция того же спора отклоняется.
func (s *DisputeService) Resolve(ctx context.Context, disputeID, adminID uuid.UUID, outcome, notes string) (*models.Dispute, error) {
	if outcome != models.DisputeOutcomeFavorBuyer && outcome != models.DisputeOutcomeFavorSeller {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый исход спора")
	}

	err := s.repo.Resolve(ctx, disputeID, adminID, outcome, notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDisputeNotFound):
			return nil, apperror.ErrDisputeNotFound
		case errors.Is(err, repository.ErrDisputeResolved):
			return nil, apperror.New(apperror.ErrCodeConflict, "спор уже разрешён")
		}
		return nil, fmt.Errorf("dispute service: resolve: %w", err)
	}

	return s.repo.GetByID(ctx, disputeID)
}

// Get возвращает спор участнику заказа или администратору.
func (s *DisputeService) Get(ctx context.Context, disputeID, userID uuid.UUID, role string) (*models.Dispute, error) {
	d, err := s.repo.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}

	if role == models.RoleAdmin {
		return d, nil
	}

	order, err := s.orders.GetByID(ctx, d.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, apperror.ErrForbidden
	}

	return d, nil
}

// GetByOrder возвращает открытый спор по заказу участнику или администратору.
func (s *DisputeService) GetByOrder(ctx context.Context, orderID, userID uuid.UUID, role string) (*models.Dispute, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	if role != models.RoleAdmin && order.BuyerID != userID && order.SellerID != userID {
		return nil, apperror.ErrForbidden
	}

	d, err := s.repo.GetOpenByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrDisputeNotFound) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListOpen возвращает открытые споры для админской очереди.
func (s *DisputeService) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	return s.repo.ListOpen(ctx, normalizeLimit(limit), offset)
}
