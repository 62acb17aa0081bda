package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/repository/common"
)

var (
	ErrDisputeNotFound = errors.New("dispute not found")
	ErrDisputeResolved = errors.New("dispute already resolved")
)

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// CreateWithTransition создаёт спор и в той же транзакции переводит заказ
// в disputed. Guard по from-статусу исключает повторный спор по тому же заказу.
func (r *DisputeRepository) CreateWithTransition(ctx context.Context, d *models.Dispute, fromStatus string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		raisedBy := d.RaisedByID
		if err := applyStatusChange(ctx, tx, d.OrderID, &raisedBy, fromStatus, models.OrderStatusDisputed); err != nil {
			return err
		}

		query := `
			INSERT INTO disputes (order_id, raised_by_id, reason, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		return tx.QueryRowContext(ctx, query, d.OrderID, d.RaisedByID, d.Reason, d.Status).
			Scan(&d.ID, &d.CreatedAt)
	})
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

func (r *DisputeRepository) GetOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT * FROM disputes WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	return &d, err
}

func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, models.DisputeStatusOpen, limit, offset)
	return disputes, err
}

// Resolve закрывает спор с перенаправлением средств.
// Смена статуса спора, переход заказа и зачисление коммитятся атомарно:
// частичный результат (статус без денег) недопустим.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID, resolvedBy uuid.UUID, outcome, notes string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var d models.Dispute
		err := tx.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1 FOR UPDATE`, disputeID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrDisputeNotFound
		}
		if err != nil {
			return err
		}
		if d.Status == models.DisputeStatusResolved {
			return ErrDisputeResolved
		}

		order, err := lockOrder(ctx, tx, d.OrderID)
		if err != nil {
			return err
		}

		switch outcome {
		case models.DisputeOutcomeFavorBuyer:
			// Возврат покупателю полной суммы, заказ закрывается отменой
			if err := applyStatusChange(ctx, tx, order.ID, &resolvedBy, models.OrderStatusDisputed, models.OrderStatusCancelled); err != nil {
				return err
			}
			if err := creditBalance(ctx, tx, order.BuyerID, order.Amount); err != nil {
				return err
			}
			if err := insertPayment(ctx, tx, &models.Payment{
				UserID:   order.BuyerID,
				OrderID:  &order.ID,
				Amount:   order.Amount,
				Currency: defaultCurrency,
				Provider: models.PaymentProviderWallet,
				Kind:     models.PaymentKindRefund,
				Status:   models.PaymentStatusCompleted,
			}); err != nil {
				return err
			}
		case models.DisputeOutcomeFavorSeller:
			// Выплата продавцу за вычетом комиссии, заказ завершается
			if err := applyStatusChange(ctx, tx, order.ID, &resolvedBy, models.OrderStatusDisputed, models.OrderStatusCompleted); err != nil {
				return err
			}
			payout := order.Payout()
			if err := creditBalance(ctx, tx, order.SellerID, payout); err != nil {
				return err
			}
			if err := insertPayment(ctx, tx, &models.Payment{
				UserID:   order.SellerID,
				OrderID:  &order.ID,
				Amount:   payout,
				Currency: defaultCurrency,
				Provider: models.PaymentProviderWallet,
				Kind:     models.PaymentKindPayout,
				Status:   models.PaymentStatusCompleted,
			}); err != nil {
				return err
			}
		default:
			return fmt.Errorf("dispute repository: unknown outcome %q", outcome)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE disputes
			SET status = $2, outcome = $3, resolution_notes = $4, resolved_by_id = $5, resolved_at = NOW()
			WHERE id = $1
		`, disputeID, models.DisputeStatusResolved, outcome, notes, resolvedBy)
		return err
	})
}
