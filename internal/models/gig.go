package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Тарифы гига
const (
	TierBasic    = "basic"
	TierStandard = "standard"
	TierPremium  = "premium"
)

// Gig описывает услугу продавца с тремя тарифами.
// Для заказа гиг является неизменяемым входом: цена фиксируется в момент создания заказа.
type Gig struct {
	ID                   uuid.UUID        `db:"id" json:"id"`
	SellerID             uuid.UUID        `db:"seller_id" json:"seller_id"`
	Title                string           `db:"title" json:"title"`
	Slug                 string           `db:"slug" json:"slug"`
	Description          string           `db:"description" json:"description"`
	Category             string           `db:"category" json:"category"`
	PriceBasic           decimal.Decimal  `db:"price_basic" json:"price_basic"`
	PriceStandard        *decimal.Decimal `db:"price_standard" json:"price_standard,omitempty"`
	PricePremium         *decimal.Decimal `db:"price_premium" json:"price_premium,omitempty"`
	DeliveryDaysBasic    int              `db:"delivery_days_basic" json:"delivery_days_basic"`
	DeliveryDaysStandard *int             `db:"delivery_days_standard" json:"delivery_days_standard,omitempty"`
	DeliveryDaysPremium  *int             `db:"delivery_days_premium" json:"delivery_days_premium,omitempty"`
	IsPublished          bool             `db:"is_published" json:"is_published"`
	CreatedAt            time.Time        `db:"created_at" json:"created_at"`
}

// PriceForTier возвращает цену выбранного тарифа.
// Для standard/premium возвращает false, если тариф у гига не заполнен.
func (g *Gig) PriceForTier(tier string) (decimal.Decimal, bool) {
	switch tier {
	case TierBasic:
		return g.PriceBasic, true
	case TierStandard:
		if g.PriceStandard == nil {
			return decimal.Zero, false
		}
		return *g.PriceStandard, true
	case TierPremium:
		if g.PricePremium == nil {
			return decimal.Zero, false
		}
		return *g.PricePremium, true
	}
	return decimal.Zero, false
}
