package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/logger"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

func init() {
	logger.Init("error")
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from, to string) error {
	args := m.Called(ctx, orderID, actorID, from, to)
	return args.Error(0)
}

func (m *mockOrderRepo) Complete(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from string, sellerID uuid.UUID, payout decimal.Decimal) error {
	args := m.Called(ctx, orderID, actorID, from, sellerID, payout)
	return args.Error(0)
}

func (m *mockOrderRepo) ListStalePending(ctx context.Context, maxAge time.Duration, limit int) ([]uuid.UUID, error) {
	args := m.Called(ctx, maxAge, limit)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *mockOrderRepo) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.OrderStatusChange), args.Error(1)
}

type mockGigRepo struct {
	mock.Mock
}

func (m *mockGigRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Gig), args.Error(1)
}

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newOrderService(repo *mockOrderRepo, gigs *mockGigRepo, users *mockUserRepo) *OrderService {
	return NewOrderService(repo, gigs, users, decimal.RequireFromString("0.10"))
}

func TestOrderService_Create_FixesPriceAndCommission(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	gigID := uuid.New()

	users.On("GetByID", ctx, buyerID).Return(&models.User{ID: buyerID, Role: models.RoleBuyer}, nil)
	gigs.On("GetByID", ctx, gigID).Return(&models.Gig{
		ID:          gigID,
		SellerID:    sellerID,
		PriceBasic:  decimal.RequireFromString("200.00"),
		IsPublished: true,
	}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*models.Order")).Return(nil)

	order, err := svc.Create(ctx, buyerID, gigID, models.TierBasic)
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.Amount.Equal(decimal.RequireFromString("200.00")))
	assert.True(t, order.Commission.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, order.Payout().Equal(decimal.RequireFromString("180.00")))
	repo.AssertExpectations(t)
}

func TestOrderService_Create_OwnGigRejected(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	userID := uuid.New()
	gigID := uuid.New()

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, Role: models.RoleBoth}, nil)
	gigs.On("GetByID", ctx, gigID).Return(&models.Gig{
		ID:          gigID,
		SellerID:    userID,
		PriceBasic:  decimal.RequireFromString("100.00"),
		IsPublished: true,
	}, nil)

	_, err := svc.Create(ctx, userID, gigID, models.TierBasic)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_Create_MissingTierRejected(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	buyerID := uuid.New()
	gigID := uuid.New()

	users.On("GetByID", ctx, buyerID).Return(&models.User{ID: buyerID, Role: models.RoleBuyer}, nil)
	gigs.On("GetByID", ctx, gigID).Return(&models.Gig{
		ID:          gigID,
		SellerID:    uuid.New(),
		PriceBasic:  decimal.RequireFromString("100.00"),
		IsPublished: true,
	}, nil)

	_, err := svc.Create(ctx, buyerID, gigID, models.TierPremium)
	assert.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestOrderService_RequestTransition_BuyerCompletesDelivered(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	buyerID := uuid.New()
	sellerID := uuid.New()
	orderID := uuid.New()

	order := &models.Order{
		ID:         orderID,
		BuyerID:    buyerID,
		SellerID:   sellerID,
		Amount:     decimal.RequireFromString("150.00"),
		Commission: decimal.RequireFromString("15.00"),
		Status:     models.OrderStatusDelivered,
	}
	repo.On("GetByID", ctx, orderID).Return(order, nil)
	repo.On("Complete", ctx, orderID, &buyerID, models.OrderStatusDelivered, sellerID,
		mock.MatchedBy(func(p decimal.Decimal) bool {
			return p.Equal(decimal.RequireFromString("135.00"))
		})).Return(nil)

	_, err := svc.RequestTransition(ctx, orderID, buyerID, models.RoleBuyer, models.OrderStatusCompleted)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOrderService_RequestTransition_SellerCannotComplete(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	sellerID := uuid.New()
	orderID := uuid.New()

	repo.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:       orderID,
		BuyerID:  uuid.New(),
		SellerID: sellerID,
		Status:   models.OrderStatusDelivered,
	}, nil)

	_, err := svc.RequestTransition(ctx, orderID, sellerID, models.RoleSeller, models.OrderStatusCompleted)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_RequestTransition_StrangerForbidden(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	orderID := uuid.New()
	repo.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:       orderID,
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   models.OrderStatusActive,
	}, nil)

	_, err := svc.RequestTransition(ctx, orderID, uuid.New(), models.RoleBuyer, models.OrderStatusDisputed)
	assert.Error(t, err)
	assert.True(t, apperror.IsForbidden(err))
}

func TestOrderService_RequestTransition_ConcurrentChangeConflict(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	sellerID := uuid.New()
	orderID := uuid.New()

	repo.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:       orderID,
		BuyerID:  uuid.New(),
		SellerID: sellerID,
		Status:   models.OrderStatusActive,
	}, nil)
	// Между чтением и guarded UPDATE статус успел измениться
	repo.On("UpdateStatus", ctx, orderID, &sellerID, models.OrderStatusActive, models.OrderStatusDelivered).
		Return(repository.ErrOrderStatusConflict)

	_, err := svc.RequestTransition(ctx, orderID, sellerID, models.RoleSeller, models.OrderStatusDelivered)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestOrderService_ExpireStalePending(t *testing.T) {
	repo := new(mockOrderRepo)
	gigs := new(mockGigRepo)
	users := new(mockUserRepo)
	svc := newOrderService(repo, gigs, users)
	ctx := context.Background()

	paid := uuid.New()
	stale := uuid.New()
	maxAge := 24 * time.Hour

	repo.On("ListStalePending", ctx, maxAge, 100).Return([]uuid.UUID{paid, stale}, nil)
	// Первый заказ успели оплатить, второй отменяется
	repo.On("UpdateStatus", ctx, paid, (*uuid.UUID)(nil), models.OrderStatusPending, models.OrderStatusCancelled).
		Return(repository.ErrOrderStatusConflict)
	repo.On("UpdateStatus", ctx, stale, (*uuid.UUID)(nil), models.OrderStatusPending, models.OrderStatusCancelled).
		Return(nil)

	expired, err := svc.ExpireStalePending(ctx, maxAge)
	assert.NoError(t, err)
	assert.Equal(t, 1, expired)
	repo.AssertExpectations(t)
}
