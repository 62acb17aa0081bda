package models

import (
	"time"

	"github.com/google/uuid"
)

// Review описывает отзыв покупателя о продавце по завершённому заказу.
// Один заказ — максимум один отзыв от покупателя.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	OrderID    uuid.UUID `db:"order_id" json:"order_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	SellerID   uuid.UUID `db:"seller_id" json:"seller_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
