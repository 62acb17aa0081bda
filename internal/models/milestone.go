package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы майлстоунов
const (
	MilestoneStatusPending   = "pending"
	MilestoneStatusCompleted = "completed"
)

// Milestone описывает промежуточный этап внутри заказа.
// Создаётся и закрывается только продавцом заказа, пока заказ не в споре.
type Milestone struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	OrderID     uuid.UUID       `db:"order_id" json:"order_id"`
	Title       string          `db:"title" json:"title"`
	Description *string         `db:"description" json:"description,omitempty"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      string          `db:"status" json:"status"`
	DueDate     *time.Time      `db:"due_date" json:"due_date,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}
