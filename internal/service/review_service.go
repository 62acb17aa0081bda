package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// ReviewRepository описывает зависимости ReviewService от слоя хранилища.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Review, error)
}

// ReviewOrderRepository отдаёт заказы для проверок доступа.
type ReviewOrderRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ReviewService инкапсулирует отзывы по завершённым заказам.
type ReviewService struct {
	repo   ReviewRepository
	orders ReviewOrderRepository
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(repo ReviewRepository, orders ReviewOrderRepository) *ReviewService {
	return &ReviewService{
		repo:   repo,
		orders: orders,
	}
}

// Create оставляет отзыв покупателя по завершённому заказу. Один отзыв на заказ.
func (s *ReviewService) Create(ctx context.Context, orderID, reviewerID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, err
	}
	if order.BuyerID != reviewerID {
		return nil, apperror.ErrForbidden
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeConflict, "отзыв можно оставить только по завершённому заказу")
	}

	if err := validation.ValidateRating(rating); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if comment != nil {
		if err := validation.ValidateLength("комментарий", *comment, 0, validation.MaxReviewCommentLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}

	review := &models.Review{
		OrderID:    orderID,
		ReviewerID: reviewerID,
		SellerID:   order.SellerID,
		Rating:     rating,
		Comment:    comment,
	}

	if err := s.repo.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrReviewExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "отзыв по этому заказу уже оставлен")
		}
		return nil, fmt.Errorf("review service: create: %w", err)
	}

	return review, nil
}

// ListBySeller возвращает отзывы о продавце.
func (s *ReviewService) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Review, error) {
	return s.repo.ListBySeller(ctx, sellerID, normalizeLimit(limit), offset)
}
