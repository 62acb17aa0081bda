package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы заказов. Переходы между ними описаны в domain/valueobject.
const (
	OrderStatusPending   = "pending"
	OrderStatusActive    = "active"
	OrderStatusDelivered = "delivered"
	OrderStatusDisputed  = "disputed"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Order описывает заказ покупателя на гиг.
// Status меняется только через state machine, напрямую его не пишет никто.
type Order struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	BuyerID    uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	SellerID   uuid.UUID       `db:"seller_id" json:"seller_id"`
	GigID      uuid.UUID       `db:"gig_id" json:"gig_id"`
	Tier       string          `db:"tier" json:"tier"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Commission decimal.Decimal `db:"commission" json:"commission"`
	Status     string          `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// Payout возвращает сумму выплаты продавцу после удержания комиссии.
func (o *Order) Payout() decimal.Decimal {
	return o.Amount.Sub(o.Commission)
}

// OrderStatusChange хранит запись аудита одного перехода статуса.
// ActorID равен nil для переходов, выполненных вебхуком или фоновым джобом.
type OrderStatusChange struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	OrderID    uuid.UUID  `db:"order_id" json:"order_id"`
	ActorID    *uuid.UUID `db:"actor_id" json:"actor_id,omitempty"`
	FromStatus string     `db:"from_status" json:"from_status"`
	ToStatus   string     `db:"to_status" json:"to_status"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}
