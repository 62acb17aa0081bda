package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/domain/valueobject"
	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// WithdrawalRepository описывает зависимости WithdrawalService от слоя хранилища.
type WithdrawalRepository interface {
	Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Withdrawal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID, reason string) error
}

// WithdrawalUserRepository отдаёт баланс кошелька.
type WithdrawalUserRepository interface {
	GetWalletBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// WithdrawalService инкапсулирует заявки на вывод средств.
type WithdrawalService struct {
	repo  WithdrawalRepository
	users WithdrawalUserRepository
}

// NewWithdrawalService создаёт сервис выводов.
func NewWithdrawalService(repo WithdrawalRepository, users WithdrawalUserRepository) *WithdrawalService {
	return &WithdrawalService{
		repo:  repo,
		users: users,
	}
}

// Request создаёт заявку на вывод. Баланс при этом не списывается:
// деньги уходят только при одобрении, где лимит проверяется повторно под блокировкой.
func (s *WithdrawalService) Request(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Withdrawal, error) {
	amount, err := valueobject.NormalizeAmount(amount)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateAmount("сумма вывода", amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	balance, err := s.users.GetWalletBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if balance.LessThan(amount) {
		return nil, apperror.New(apperror.ErrCodeConflict, "недостаточно средств на кошельке")
	}

	w, err := s.repo.Create(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("withdrawal service: request: %w", err)
	}

	return w, nil
}

// Approve одобряет заявку и списывает средства одной транзакцией.
func (s *WithdrawalService) Approve(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	err := s.repo.Approve(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWithdrawalNotFound):
			return nil, apperror.ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrWithdrawalProcessed):
			return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, apperror.New(apperror.ErrCodeConflict, "на кошельке больше нет этой суммы")
		}
		return nil, fmt.Errorf("withdrawal service: approve: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

// Reject отклоняет заявку без движения средств.
func (s *WithdrawalService) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error) {
	err := s.repo.Reject(ctx, id, reason)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrWithdrawalNotFound):
			return nil, apperror.ErrWithdrawalNotFound
		case errors.Is(err, repository.ErrWithdrawalProcessed):
			return nil, apperror.New(apperror.ErrCodeConflict, "заявка уже обработана")
		}
		return nil, fmt.Errorf("withdrawal service: reject: %w", err)
	}

	return s.repo.GetByID(ctx, id)
}

// ListMine возвращает заявки пользователя.
func (s *WithdrawalService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	return s.repo.ListByUser(ctx, userID, normalizeLimit(limit), offset)
}

// ListPending возвращает очередь заявок для администратора.
func (s *WithdrawalService) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	return s.repo.ListPending(ctx, normalizeLimit(limit), offset)
}
