package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/repository/common"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrOrderStatusConflict означает, что статус заказа изменился между
	// проверкой и применением перехода: конкурирующий запрос успел раньше.
	ErrOrderStatusConflict = errors.New("order status changed concurrently")
)

type OrderRepository struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (buyer_id, seller_id, gig_id, tier, amount, commission, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		order.BuyerID, order.SellerID, order.GigID, order.Tier,
		order.Amount, order.Commission, order.Status).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("order repository: create %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return common.GetByID[models.Order](ctx, r.db, "orders", id, ErrOrderNotFound)
}

// ListByParticipant возвращает заказы, где пользователь покупатель или продавец.
func (r *OrderRepository) ListByParticipant(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return orders, err
}

// UpdateStatus атомарно применяет переход from -> to.
// Guard по текущему статусу в WHERE исключает гонку check-then-apply:
// если конкурирующий запрос уже сменил статус, обновится ноль строк.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from, to string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return applyStatusChange(ctx, tx, orderID, actorID, from, to)
	})
}

// Complete переводит заказ в completed и в той же транзакции выплачивает
// продавцу payout. Частичный коммит (статус без денег) невозможен.
func (r *OrderRepository) Complete(ctx context.Context, orderID uuid.UUID, actorID *uuid.UUID, from string, sellerID uuid.UUID, payout decimal.Decimal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := applyStatusChange(ctx, tx, orderID, actorID, from, models.OrderStatusCompleted); err != nil {
			return err
		}
		if err := creditBalance(ctx, tx, sellerID, payout); err != nil {
			return err
		}
		return insertPayment(ctx, tx, &models.Payment{
			UserID:   sellerID,
			OrderID:  &orderID,
			Amount:   payout,
			Currency: defaultCurrency,
			Provider: models.PaymentProviderWallet,
			Kind:     models.PaymentKindPayout,
			Status:   models.PaymentStatusCompleted,
		})
	})
}

// ListStalePending возвращает id заказов, висящих в pending дольше maxAge.
// Используется фоновым реапером брошенных checkout-сессий.
func (r *OrderRepository) ListStalePending(ctx context.Context, maxAge time.Duration, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id FROM orders WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC LIMIT $3
	`, models.OrderStatusPending, time.Now().Add(-maxAge), limit)
	return ids, err
}

// ListHistory возвращает аудит переходов статуса заказа.
func (r *OrderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusChange, error) {
	var history []models.OrderStatusChange
	err := r.db.SelectContext(ctx, &history, `
		SELECT * FROM order_status_history WHERE order_id = $1 ORDER BY created_at ASC
	`, orderID)
	return history, err
}

// applyStatusChange выполняет guarded update статуса и пишет строку аудита.
// Работает только внутри транзакции вызывающего кода.
func applyStatusChange(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID, actorID *uuid.UUID, from, to string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
	`, orderID, from, to)
	if err != nil {
		return fmt.Errorf("order repository: update status %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Либо заказа нет, либо статус уже другой
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if !exists {
			return ErrOrderNotFound
		}
		return ErrOrderStatusConflict
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_status_history (order_id, actor_id, from_status, to_status)
		VALUES ($1, $2, $3, $4)
	`, orderID, actorID, from, to)
	return err
}
