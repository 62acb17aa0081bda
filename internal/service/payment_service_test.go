package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ignatzorin/marketplace-backend/internal/gateway"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
)

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) PayOrderWithWallet(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Payment, error) {
	args := m.Called(ctx, orderID, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *mockPaymentRepo) ApplyOrderPayment(ctx context.Context, externalID string, orderID uuid.UUID) (bool, error) {
	args := m.Called(ctx, externalID, orderID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) TopUpWallet(ctx context.Context, externalID string, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, externalID, userID, amount)
	return args.Bool(0), args.Error(1)
}

func (m *mockPaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Payment), args.Error(1)
}

type mockWalletUserRepo struct {
	mock.Mock
}

func (m *mockWalletUserRepo) GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCheckout(ctx context.Context, amount decimal.Decimal, currency string, metadata map[string]string) (*gateway.CheckoutSession, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

func (m *mockGateway) VerifyAndDecode(rawBody []byte, signature string) (*gateway.Event, error) {
	args := m.Called(rawBody, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Event), args.Error(1)
}

func newPaymentService(repo *mockPaymentRepo, orders *mockOrderRepo, users *mockWalletUserRepo, gw *mockGateway) *PaymentService {
	return NewPaymentService(repo, orders, users, gw)
}

func TestPaymentService_PayWithWallet_Success(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	orderID := uuid.New()
	buyerID := uuid.New()

	expected := &models.Payment{
		ID:       uuid.New(),
		UserID:   buyerID,
		Provider: models.PaymentProviderWallet,
		Kind:     models.PaymentKindCharge,
		Status:   models.PaymentStatusCompleted,
	}
	repo.On("PayOrderWithWallet", ctx, orderID, buyerID).Return(expected, nil)

	payment, err := svc.PayWithWallet(ctx, orderID, buyerID)
	assert.NoError(t, err)
	assert.Equal(t, expected, payment)
	repo.AssertExpectations(t)
}

func TestPaymentService_PayWithWallet_InsufficientFunds(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	orderID := uuid.New()
	buyerID := uuid.New()

	repo.On("PayOrderWithWallet", ctx, orderID, buyerID).Return(nil, repository.ErrInsufficientFunds)

	_, err := svc.PayWithWallet(ctx, orderID, buyerID)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestPaymentService_CreateCheckout_OnlyBuyerAndPending(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	orderID := uuid.New()
	buyerID := uuid.New()

	orders.On("GetByID", ctx, orderID).Return(&models.Order{
		ID:      orderID,
		BuyerID: buyerID,
		Amount:  decimal.RequireFromString("100.00"),
		Status:  models.OrderStatusActive,
	}, nil)

	// Чужой пользователь
	_, err := svc.CreateCheckout(ctx, orderID, uuid.New())
	assert.True(t, apperror.IsForbidden(err))

	// Покупатель, но заказ уже оплачен
	_, err = svc.CreateCheckout(ctx, orderID, buyerID)
	assert.Error(t, err)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
}

func TestPaymentService_HandleWebhook_OrderPayment(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	orderID := uuid.New()
	rawBody := []byte(`{"id":"evt_1"}`)

	gw.On("VerifyAndDecode", rawBody, "sig").Return(&gateway.Event{
		ID:   "evt_1",
		Type: gateway.EventCheckoutCompleted,
		Metadata: map[string]string{
			gateway.MetaOrderID: orderID.String(),
		},
	}, nil)
	repo.On("ApplyOrderPayment", ctx, "evt_1", orderID).Return(true, nil)

	err := svc.HandleWebhook(ctx, rawBody, "sig")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPaymentService_HandleWebhook_DuplicateIsNoOp(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	orderID := uuid.New()
	rawBody := []byte(`{"id":"evt_1"}`)

	gw.On("VerifyAndDecode", rawBody, "sig").Return(&gateway.Event{
		ID:   "evt_1",
		Type: gateway.EventCheckoutCompleted,
		Metadata: map[string]string{
			gateway.MetaOrderID: orderID.String(),
		},
	}, nil)
	// Событие уже применялось: репозиторий отвечает applied=false без ошибки
	repo.On("ApplyOrderPayment", ctx, "evt_1", orderID).Return(false, nil)

	err := svc.HandleWebhook(ctx, rawBody, "sig")
	assert.NoError(t, err)
}

func TestPaymentService_HandleWebhook_InvalidSignature(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	rawBody := []byte(`{}`)
	gw.On("VerifyAndDecode", rawBody, "bad").Return(nil, gateway.ErrInvalidSignature)

	err := svc.HandleWebhook(ctx, rawBody, "bad")
	assert.ErrorIs(t, err, gateway.ErrInvalidSignature)
	repo.AssertNotCalled(t, "ApplyOrderPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_HandleWebhook_Topup(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	userID := uuid.New()
	rawBody := []byte(`{"id":"evt_2"}`)

	gw.On("VerifyAndDecode", rawBody, "sig").Return(&gateway.Event{
		ID:   "evt_2",
		Type: gateway.EventCheckoutCompleted,
		Metadata: map[string]string{
			gateway.MetaType:   gateway.MetaTypeWalletTopup,
			gateway.MetaUserID: userID.String(),
			gateway.MetaAmount: "50.00",
		},
	}, nil)
	repo.On("TopUpWallet", ctx, "evt_2", userID,
		mock.MatchedBy(func(a decimal.Decimal) bool {
			return a.Equal(decimal.RequireFromString("50.00"))
		})).Return(true, nil)

	err := svc.HandleWebhook(ctx, rawBody, "sig")
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPaymentService_HandleWebhook_IgnoresOtherEvents(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	rawBody := []byte(`{"id":"evt_3"}`)
	gw.On("VerifyAndDecode", rawBody, "sig").Return(&gateway.Event{
		ID:   "evt_3",
		Type: "invoice.paid",
	}, nil)

	err := svc.HandleWebhook(ctx, rawBody, "sig")
	assert.NoError(t, err)
	repo.AssertNotCalled(t, "ApplyOrderPayment", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "TopUpWallet", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPaymentService_CreateTopup_AmountBounds(t *testing.T) {
	repo := new(mockPaymentRepo)
	orders := new(mockOrderRepo)
	users := new(mockWalletUserRepo)
	gw := new(mockGateway)
	svc := newPaymentService(repo, orders, users, gw)
	ctx := context.Background()

	_, err := svc.CreateTopup(ctx, uuid.New(), decimal.RequireFromString("1.00"))
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.CreateTopup(ctx, uuid.New(), decimal.RequireFromString("50000.00"))
	assert.True(t, apperror.IsValidation(err))
}
