package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

type mockMilestoneRepo struct {
	mock.Mock
}

func (m *mockMilestoneRepo) Create(ctx context.Context, ms *models.Milestone) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}

func (m *mockMilestoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Milestone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Milestone, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.Milestone), args.Error(1)
}

func (m *mockMilestoneRepo) SumByOrder(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockMilestoneRepo) MarkCompleted(ctx context.Context, orderID, milestoneID uuid.UUID, completedAt time.Time) error {
	args := m.Called(ctx, orderID, milestoneID, completedAt)
	return args.Error(0)
}

func activeOrder(orderID, sellerID uuid.UUID, amount string) *models.Order {
	return &models.Order{
		ID:       orderID,
		BuyerID:  uuid.New(),
		SellerID: sellerID,
		Amount:   decimal.RequireFromString(amount),
		Status:   models.OrderStatusActive,
	}
}

func TestMilestoneService_Create_Success(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(activeOrder(orderID, sellerID, "300.00"), nil)
	repo.On("SumByOrder", ctx, orderID).Return(decimal.RequireFromString("100.00"), nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Milestone")).Return(nil)

	m, err := svc.Create(ctx, orderID, sellerID, CreateMilestoneInput{
		Title:  "Дизайн макета",
		Amount: decimal.RequireFromString("150.00"),
	})
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusPending, m.Status)
	repo.AssertExpectations(t)
}

func TestMilestoneService_Create_SumExceedsOrderAmount(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(activeOrder(orderID, sellerID, "300.00"), nil)
	repo.On("SumByOrder", ctx, orderID).Return(decimal.RequireFromString("200.00"), nil)

	_, err := svc.Create(ctx, orderID, sellerID, CreateMilestoneInput{
		Title:  "Вёрстка",
		Amount: decimal.RequireFromString("150.00"),
	})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMilestoneService_Create_DisputedOrderFrozen(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()

	order := activeOrder(orderID, sellerID, "300.00")
	order.Status = models.OrderStatusDisputed
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.Create(ctx, orderID, sellerID, CreateMilestoneInput{
		Title:  "Вёрстка",
		Amount: decimal.RequireFromString("50.00"),
	})
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestMilestoneService_Create_BuyerForbidden(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	order := activeOrder(orderID, uuid.New(), "300.00")
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.Create(ctx, orderID, order.BuyerID, CreateMilestoneInput{
		Title:  "Вёрстка",
		Amount: decimal.RequireFromString("50.00"),
	})
	assert.True(t, apperror.IsForbidden(err))
}

func TestMilestoneService_Complete_Success(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()
	milestoneID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(activeOrder(orderID, sellerID, "300.00"), nil)
	repo.On("MarkCompleted", ctx, orderID, milestoneID, mock.AnythingOfType("time.Time")).Return(nil)
	repo.On("GetByID", ctx, milestoneID).Return(&models.Milestone{
		ID:      milestoneID,
		OrderID: orderID,
		Status:  models.MilestoneStatusCompleted,
	}, nil)

	m, err := svc.Complete(ctx, orderID, milestoneID, sellerID)
	assert.NoError(t, err)
	assert.Equal(t, models.MilestoneStatusCompleted, m.Status)
}

func TestMilestoneService_Complete_AlreadyCompleted(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()
	milestoneID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(activeOrder(orderID, sellerID, "300.00"), nil)
	repo.On("MarkCompleted", ctx, orderID, milestoneID, mock.AnythingOfType("time.Time")).
		Return(repository.ErrMilestoneCompleted)

	_, err := svc.Complete(ctx, orderID, milestoneID, sellerID)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestMilestoneService_Complete_DisputedOrderFrozen(t *testing.T) {
	repo := new(mockMilestoneRepo)
	orders := new(mockOrderRepo)
	svc := NewMilestoneService(repo, orders)
	ctx := context.Background()

	orderID := uuid.New()
	sellerID := uuid.New()

	order := activeOrder(orderID, sellerID, "300.00")
	order.Status = models.OrderStatusDisputed
	orders.On("GetByID", ctx, orderID).Return(order, nil)

	_, err := svc.Complete(ctx, orderID, uuid.New(), sellerID)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
