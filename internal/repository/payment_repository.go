package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/models"
	"github.com/ignatzorin/marketplace-backend/internal/repository/common"
)

const defaultCurrency = "usd"

var (
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrOrderNotPayable означает, что заказ не в pending или оплату
	// запрашивает не его покупатель.
	ErrOrderNotPayable = errors.New("order is not payable")
)

type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByExternalID возвращает платёж по идемпотентному ключу провайдера.
func (r *PaymentRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Payment, error) {
	return common.GetByField[models.Payment](ctx, r.db, "payments", "external_id", externalID, ErrPaymentNotFound)
}

// ListByUser возвращает историю платежей пользователя.
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.SelectContext(ctx, &payments, `
		SELECT * FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return payments, err
}

// PayOrderWithWallet оплачивает заказ из кошелька покупателя.
// Блокировка строки заказа, re-check статуса, списание, запись платежа и
// переход pending -> active выполняются одной транзакцией.
func (r *PaymentRepository) PayOrderWithWallet(ctx context.Context, orderID, buyerID uuid.UUID) (*models.Payment, error) {
	var payment *models.Payment
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		order, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.BuyerID != buyerID || order.Status != models.OrderStatusPending {
			return ErrOrderNotPayable
		}

		if err := debitBalance(ctx, tx, buyerID, order.Amount); err != nil {
			return err
		}

		payment = &models.Payment{
			UserID:   buyerID,
			OrderID:  &orderID,
			Amount:   order.Amount,
			Currency: defaultCurrency,
			Provider: models.PaymentProviderWallet,
			Kind:     models.PaymentKindCharge,
			Status:   models.PaymentStatusCompleted,
		}
		if err := insertPayment(ctx, tx, payment); err != nil {
			return err
		}

		return applyStatusChange(ctx, tx, orderID, &buyerID, models.OrderStatusPending, models.OrderStatusActive)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplyOrderPayment применяет подтверждённое событие внешней оплаты заказа.
// Возвращает false без ошибки, если событие уже применялось, заказ не найден
// или заказ уже активирован: повторная доставка вебхука должна получить успех.
func (r *PaymentRepository) ApplyOrderPayment(ctx context.Context, externalID string, orderID uuid.UUID) (bool, error) {
	applied := false
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		exists, err := externalEventSeen(ctx, tx, externalID)
		if err != nil || exists {
			return err
		}

		order, err := lockOrder(ctx, tx, orderID)
		if errors.Is(err, ErrOrderNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return nil
		}

		inserted, err := insertExternalPayment(ctx, tx, &models.Payment{
			UserID:     order.BuyerID,
			OrderID:    &orderID,
			ExternalID: &externalID,
			Amount:     order.Amount,
			Currency:   defaultCurrency,
			Provider:   models.PaymentProviderExternal,
			Kind:       models.PaymentKindCharge,
			Status:     models.PaymentStatusCompleted,
		})
		if err != nil || !inserted {
			return err
		}

		if err := applyStatusChange(ctx, tx, orderID, nil, models.OrderStatusPending, models.OrderStatusActive); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// TopUpWallet зачисляет внешнее пополнение кошелька.
// Идемпотентность та же: по external_id события. Запись платежа идёт
// строго до зачисления: при параллельной доставке дубля проигравшая
// транзакция увидит конфликт по external_id и выйдет, не тронув баланс.
func (r *PaymentRepository) TopUpWallet(ctx context.Context, externalID string, userID uuid.UUID, amount decimal.Decimal) (bool, error) {
	applied := false
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		exists, err := externalEventSeen(ctx, tx, externalID)
		if err != nil || exists {
			return err
		}

		if exists, err := userExists(ctx, tx, userID); err != nil || !exists {
			// Событие ссылается на несуществующего пользователя, ретраи бессмысленны
			return err
		}

		inserted, err := insertExternalPayment(ctx, tx, &models.Payment{
			UserID:     userID,
			ExternalID: &externalID,
			Amount:     amount,
			Currency:   defaultCurrency,
			Provider:   models.PaymentProviderExternal,
			Kind:       models.PaymentKindTopup,
			Status:     models.PaymentStatusCompleted,
		})
		if err != nil || !inserted {
			return err
		}

		if err := creditBalance(ctx, tx, userID, amount); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// lockOrder читает заказ под блокировкой строки.
func lockOrder(ctx context.Context, tx *sqlx.Tx, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, `SELECT * FROM orders WHERE id = $1 FOR UPDATE`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("payment repository: lock order %w", err)
	}
	return &order, nil
}

// userExists проверяет наличие получателя до вставки платежа, чтобы событие
// с чужим user_id не упиралось в нарушение внешнего ключа и вечные ретраи.
func userExists(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	return exists, err
}

// externalEventSeen проверяет, применялось ли событие с таким external_id.
func externalEventSeen(ctx context.Context, tx *sqlx.Tx, externalID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM payments WHERE external_id = $1)`, externalID)
	return exists, err
}

// insertPayment создаёт запись платежа внутри транзакции вызывающего кода.
func insertPayment(ctx context.Context, tx *sqlx.Tx, p *models.Payment) error {
	query := `
		INSERT INTO payments (user_id, order_id, external_id, amount, currency, provider, kind, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CASE WHEN $8 = 'completed' THEN NOW() END)
		RETURNING id, created_at, completed_at
	`
	err := tx.QueryRowContext(ctx, query,
		p.UserID, p.OrderID, p.ExternalID, p.Amount, p.Currency, p.Provider, p.Kind, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.CompletedAt)
	if err != nil {
		return fmt.Errorf("payment repository: insert payment %w", err)
	}
	return nil
}

// insertExternalPayment вставляет платёж с защитой от дубля external_id.
// ON CONFLICT DO NOTHING закрывает гонку двух одновременных доставок события.
// Предикат в конфликтной цели обязателен: уникальный индекс по external_id
// частичный, и без повторения его WHERE Postgres не находит арбитра.
func insertExternalPayment(ctx context.Context, tx *sqlx.Tx, p *models.Payment) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO payments (user_id, order_id, external_id, amount, currency, provider, kind, status, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (external_id) WHERE external_id IS NOT NULL DO NOTHING
	`, p.UserID, p.OrderID, p.ExternalID, p.Amount, p.Currency, p.Provider, p.Kind, p.Status)
	if err != nil {
		return false, fmt.Errorf("payment repository: insert external payment %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
