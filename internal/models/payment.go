package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Провайдеры платежей
const (
	PaymentProviderExternal = "external"
	PaymentProviderWallet   = "wallet"
)

// Виды платежей
const (
	PaymentKindCharge = "charge" // оплата заказа покупателем
	PaymentKindTopup  = "topup"  // пополнение кошелька
	PaymentKindPayout = "payout" // выплата продавцу при завершении заказа
	PaymentKindRefund = "refund" // возврат покупателю по спору
)

// Статусы платежей
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Payment представляет одно движение денег: списание, пополнение, выплату или возврат.
// Запись неизменяема после создания, меняется только статус.
// ExternalID — идемпотентный ключ события провайдера, у wallet-платежей он отсутствует.
type Payment struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	OrderID     *uuid.UUID      `db:"order_id" json:"order_id,omitempty"`
	ExternalID  *string         `db:"external_id" json:"external_id,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Currency    string          `db:"currency" json:"currency"`
	Provider    string          `db:"provider" json:"provider"`
	Kind        string          `db:"kind" json:"kind"`
	Status      string          `db:"status" json:"status"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
