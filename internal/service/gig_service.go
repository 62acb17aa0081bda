package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
	"github.com/ignatzorin/marketplace-backend/internal/repository"
	"github.com/ignatzorin/marketplace-backend/internal/validation"
)

// GigRepository описывает зависимости GigService от слоя хранилища.
type GigRepository interface {
	Create(ctx context.Context, gig *models.Gig) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
	GetBySlug(ctx context.Context, slug string) (*models.Gig, error)
	ListPublished(ctx context.Context, limit, offset int) ([]models.Gig, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Gig, error)
}

// GigUserRepository отдаёт пользователей для проверки роли продавца.
type GigUserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// GigService инкапсулирует бизнес-логику каталога гигов.
type GigService struct {
	repo  GigRepository
	users GigUserRepository
}

// CreateGigInput содержит данные нового гига.
type CreateGigInput struct {
	Title                string
	Description          string
	Category             string
	PriceBasic           decimal.Decimal
	PriceStandard        *decimal.Decimal
	PricePremium         *decimal.Decimal
	DeliveryDaysBasic    int
	DeliveryDaysStandard *int
	DeliveryDaysPremium  *int
	IsPublished          bool
}

// NewGigService создаёт сервис гигов.
func NewGigService(repo GigRepository, users GigUserRepository) *GigService {
	return &GigService{
		repo:  repo,
		users: users,
	}
}

// Create публикует новый гиг от имени продавца.
func (s *GigService) Create(ctx context.Context, sellerID uuid.UUID, in CreateGigInput) (*models.Gig, error) {
	seller, err := s.users.GetByID(ctx, sellerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, err
	}
	if !seller.CanSell() {
		return nil, apperror.New(apperror.ErrCodeForbidden, "создавать гиги могут только продавцы")
	}

	if err := validation.ValidateGigTitle(in.Title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateGigDescription(in.Description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateNonEmpty("категория", in.Category); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmount("цена базового тарифа", in.PriceBasic); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if in.PriceStandard != nil {
		if err := validation.ValidateAmount("цена тарифа standard", *in.PriceStandard); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.PricePremium != nil {
		if err := validation.ValidateAmount("цена тарифа premium", *in.PricePremium); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if in.DeliveryDaysBasic <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок доставки должен быть положительным")
	}

	gig := &models.Gig{
		SellerID:             sellerID,
		Title:                in.Title,
		Slug:                 s.makeSlug(in.Title),
		Description:          in.Description,
		Category:             in.Category,
		PriceBasic:           in.PriceBasic,
		PriceStandard:        in.PriceStandard,
		PricePremium:         in.PricePremium,
		DeliveryDaysBasic:    in.DeliveryDaysBasic,
		DeliveryDaysStandard: in.DeliveryDaysStandard,
		DeliveryDaysPremium:  in.DeliveryDaysPremium,
		IsPublished:          in.IsPublished,
	}

	if err := s.repo.Create(ctx, gig); err != nil {
		return nil, fmt.Errorf("gig service: create: %w", err)
	}

	return gig, nil
}

// Get возвращает гиг по ID.
func (s *GigService) Get(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	gig, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	return gig, nil
}

// GetBySlug возвращает гиг по слагу.
func (s *GigService) GetBySlug(ctx context.Context, slugStr string) (*models.Gig, error) {
	gig, err := s.repo.GetBySlug(ctx, slugStr)
	if err != nil {
		if errors.Is(err, repository.ErrGigNotFound) {
			return nil, apperror.ErrGigNotFound
		}
		return nil, err
	}
	return gig, nil
}

// ListPublished возвращает опубликованные гиги каталога.
func (s *GigService) ListPublished(ctx context.Context, limit, offset int) ([]models.Gig, error) {
	return s.repo.ListPublished(ctx, normalizeLimit(limit), offset)
}

// ListBySeller возвращает гиги конкретного продавца.
func (s *GigService) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Gig, error) {
	return s.repo.ListBySeller(ctx, sellerID, normalizeLimit(limit), offset)
}

// makeSlug формирует уникальный слаг из заголовка.
// Суффикс из UUID исключает коллизии между одинаковыми заголовками.
func (s *GigService) makeSlug(title string) string {
	return slug.Make(title) + "-" + uuid.NewString()[:8]
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
