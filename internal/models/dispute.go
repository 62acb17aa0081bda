package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы и исходы споров
const (
	DisputeStatusOpen     = "open"
	DisputeStatusResolved = "resolved"

	DisputeOutcomeFavorBuyer  = "favor_buyer"
	DisputeOutcomeFavorSeller = "favor_seller"
)

// Dispute описывает спор по заказу. После резолюции запись терминальна.
type Dispute struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderID         uuid.UUID  `db:"order_id" json:"order_id"`
	RaisedByID      uuid.UUID  `db:"raised_by_id" json:"raised_by_id"`
	Reason          string     `db:"reason" json:"reason"`
	Status          string     `db:"status" json:"status"`
	Outcome         *string    `db:"outcome" json:"outcome,omitempty"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedByID    *uuid.UUID `db:"resolved_by_id" json:"resolved_by_id,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
