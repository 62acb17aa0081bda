package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/repository/common"
)

var ErrGigNotFound = errors.New("gig not found")

type GigRepository struct {
	db *sqlx.DB
}

func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	query := `
		INSERT INTO gigs (seller_id, title, slug, description, category,
			price_basic, price_standard, price_premium,
			delivery_days_basic, delivery_days_standard, delivery_days_premium, is_published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		gig.SellerID, gig.Title, gig.Slug, gig.Description, gig.Category,
		gig.PriceBasic, gig.PriceStandard, gig.PricePremium,
		gig.DeliveryDaysBasic, gig.DeliveryDaysStandard, gig.DeliveryDaysPremium, gig.IsPublished).
		Scan(&gig.ID, &gig.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "gigs_slug_key") {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("gig repository: create %w", err)
	}
	return nil
}

func (r *GigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	return common.GetByID[models.Gig](ctx, r.db, "gigs", id, ErrGigNotFound)
}

func (r *GigRepository) GetBySlug(ctx context.Context, slug string) (*models.Gig, error) {
	return common.GetByField[models.Gig](ctx, r.db, "gigs", "slug", slug, ErrGigNotFound)
}

// ListPublished возвращает опубликованные гиги в порядке создания.
func (r *GigRepository) ListPublished(ctx context.Context, limit, offset int) ([]models.Gig, error) {
	var gigs []models.Gig
	err := r.db.SelectContext(ctx, &gigs, `
		SELECT * FROM gigs WHERE is_published = TRUE ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	return gigs, err
}

func (r *GigRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]models.Gig, error) {
	var gigs []models.Gig
	err := r.db.SelectContext(ctx, &gigs, `
		SELECT * FROM gigs WHERE seller_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, sellerID, limit, offset)
	return gigs, err
}
