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

var (
	ErrWithdrawalNotFound = errors.New("withdrawal not found")

	// ErrWithdrawalProcessed — заявка уже одобрена или отклонена.
	ErrWithdrawalProcessed = errors.New("withdrawal already processed")
)

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Create сохраняет заявку на вывод. Баланс на этом шаге не трогается:
// средства списываются только при одобрении.
func (r *WithdrawalRepository) Create(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.GetContext(ctx, &w, `
		INSERT INTO withdrawals (user_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING *
	`, userID, amount, models.WithdrawalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: create %w", err)
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error) {
	return common.GetByID[models.Withdrawal](ctx, r.db, "withdrawals", id, ErrWithdrawalNotFound)
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return withdrawals, err
}

func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Withdrawal, error) {
	var withdrawals []models.Withdrawal
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals WHERE status = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`, models.WithdrawalStatusPending, limit, offset)
	return withdrawals, err
}

// Approve одобряет заявку и списывает средства одной транзакцией.
// Сама строка withdrawal служит парной durable-записью для ledger-дебета.
func (r *WithdrawalRepository) Approve(ctx context.Context, id uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		w, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.Status != models.WithdrawalStatusPending {
			return ErrWithdrawalProcessed
		}

		if err := debitBalance(ctx, tx, w.UserID, w.Amount); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE withdrawals SET status = $2, processed_at = NOW() WHERE id = $1
		`, id, models.WithdrawalStatusApproved)
		return err
	})
}

// Reject отклоняет заявку. Баланс не менялся, возвращать нечего.
func (r *WithdrawalRepository) Reject(ctx context.Context, id uuid.UUID, reason string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		w, err := lockWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		if w.Status != models.WithdrawalStatusPending {
			return ErrWithdrawalProcessed
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE withdrawals SET status = $2, rejection_reason = $3, processed_at = NOW() WHERE id = $1
		`, id, models.WithdrawalStatusRejected, reason)
		return err
	})
}

func lockWithdrawal(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := tx.GetContext(ctx, &w, `SELECT * FROM withdrawals WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	return &w, err
}
