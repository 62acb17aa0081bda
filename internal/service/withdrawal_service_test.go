package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

type mockWithdrawalRepo struct {
	mock.Mock
}

func (m *mockWithdrawalRepo) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Withdrawal, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Withdrawal), args.Error(1)
}

func (m *mockWithdrawalRepo) Approve(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockWithdrawalRepo) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func TestWithdrawalService_Request_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	userID := uuid.New()
	amount := decimal.RequireFromString("100.00")

	users.On("GetWalletBalance", ctx, userID).Return(decimal.RequireFromString("250.00"), nil)
	repo.On("Create", ctx, userID, amount).Return(&models.Withdrawal{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Status: models.WithdrawalStatusPending,
	}, nil)

	w, err := svc.Request(ctx, userID, amount)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)
	repo.AssertExpectations(t)
}

func TestWithdrawalService_Request_InsufficientBalance(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	userID := uuid.New()

	users.On("GetWalletBalance", ctx, userID).Return(decimal.RequireFromString("50.00"), nil)

	_, err := svc.Request(ctx, userID, decimal.RequireFromString("100.00"))
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_Request_NonPositiveAmount(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	_, err := svc.Request(ctx, uuid.New(), decimal.Zero)
	assert.True(t, apperror.IsValidation(err))
}

func TestWithdrawalService_Approve_AlreadyProcessed(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	id := uuid.New()
	repo.On("Approve", ctx, id).Return(repository.ErrWithdrawalProcessed)

	_, err := svc.Approve(ctx, id)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestWithdrawalService_Approve_BalanceDrained(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	// Между заявкой и одобрением деньги потратили: списание отклоняется
	id := uuid.New()
	repo.On("Approve", ctx, id).Return(repository.ErrInsufficientFunds)

	_, err := svc.Approve(ctx, id)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestWithdrawalService_Reject_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	users := new(mockWalletUserRepo)
	svc := NewWithdrawalService(repo, users)
	ctx := context.Background()

	id := uuid.New()
	reason := "реквизиты не прошли проверку"
	repo.On("Reject", ctx, id, reason).Return(nil)
	repo.On("GetByID", ctx, id).Return(&models.Withdrawal{
		ID:     id,
		Status: models.WithdrawalStatusRejected,
	}, nil)

	w, err := svc.Reject(ctx, id, reason)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, w.Status)
}
