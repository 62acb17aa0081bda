package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// MilestoneRepository описывает зависимости MilestoneService от слоя хранилища.
type MilestoneRepository interface {
	Create(ctx context.Context, m *models.Milestone) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Milestone, error)
	SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	MarkCompleted(ctx context.Context, orderID, milestoneID uuid.UUID, completedAt time.Time) error
}

// MilestoneOrderRepository отдаёт заказы для проверок доступа.
type MilestoneOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// MilestoneService инкапсулирует этапы работы внутри заказа.
type MilestoneService struct {
	repo   MilestoneRepository
	orders MilestoneOrderRepository
}

// CreateMilestoneInput содержит данные нового этапа.
type CreateMilestoneInput struct {
	Title       string
	Description *string
	Amount      decimal.Decimal
	DueDate     *time.Time
}

// NewMilestoneService создаёт сервис этапов.
func NewMilestoneService(repo MilestoneRepository, orders MilestoneOrderRepository) *MilestoneService {
	return &MilestoneService{
		repo:   repo,
		orders: orders,
	}
}

// Create добавляет этап к заказу. Доступно только продавцу заказа,
// пока заказ в pending или active; сумма этапов не превышает сумму заказа.
func (s *MilestoneService) Create(ctx context.Context, orderID, sellerID uuid.UUID, in CreateMilestoneInput) (*models.Milestone, error) {
	order, err := s.loadOrderForSeller(ctx, orderID, sellerID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusActive {
		return nil, apperror.New(apperror.ErrCodeConflict, "этапы можно добавлять только в pending или active заказ")
	}

	if err := validation.ValidateLength("заголовок этапа", in.Title, validation.MinMilestoneTitleLength, validation.MaxMilestoneTitleLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	amount, err := valueobject.NormalizeAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount("сумма этапа", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	sum, err := s.repo.SumByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("milestone service: sum: %w", err)
	}
	if sum.Add(amount).GreaterThan(order.Amount) {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма этапов превышает сумму заказа")
	}

	m := &models.Milestone{
		OrderID:     orderID,
		Title:       in.Title,
		Description: in.Description,
		Amount:      amount,
		Status:      models.MilestoneStatusPending,
		DueDate:     in.DueDate,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("milestone service: create: %w", err)
	}

	return m, nil
}

// Complete отмечает этап выполненным. Спор по заказу замораживает этапы.
func (s *MilestoneService) Complete(ctx context.Context, orderID, milestoneID, sellerID uuid.UUID) (*models.Milestone, error) {
	order, err := s.loadOrderForSeller(ctx, orderID, sellerID)
	if err != nil {
		return nil, err
	}

	if order.Status == models.OrderStatusDisputed {
		return nil, apperror.New(apperror.ErrCodeConflict, "заказ в споре, этапы заморожены")
	}

	err = s.repo.MarkCompleted(ctx, orderID, milestoneID, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrMilestoneNotFound):
			return nil, apperror.ErrMilestoneNotFound
		case errors.Is(err, repository.ErrMilestoneCompleted):
			return nil, apperror.New(apperror.ErrCodeConflict, "этап уже выполнен")
		}
		return nil, err
	}

	return s.repo.GetByID(ctx, milestoneID)
}

// List возвращает этапы заказа его участнику или администратору.
func (s *MilestoneService) List(ctx context.Context, orderID, userID uuid.UUID, role string) ([]models.Milestone, error) {
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

	return s.repo.ListByOrder(ctx, orderID)
}

func (s *MilestoneService) loadOrderForSeller(ctx context.Context, orderID, sellerID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, apperror.ErrForbidden
	}
	return order, nil
}
