package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger-функции — единственное место, где меняется users.wallet_balance.
// Все они работают только внутри открытой транзакции вызывающего кода:
// вызывающий обязан в той же транзакции создать парную запись Payment или
// Withdrawal, иначе нарушается сохранение денег.

// lockBalance читает баланс пользователя под блокировкой строки.
func lockBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance, `SELECT wallet_balance FROM users WHERE id = $1 FOR UPDATE`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ErrUserNotFound
	}
	return balance, err
}

// debitBalance списывает amount с кошелька пользователя.
// Проверка достаточности средств и само списание выполняются под одной
// блокировкой строки, баланс не может уйти в минус.
func debitBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return err
	}
	if balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE users SET wallet_balance = wallet_balance - $2, updated_at = NOW() WHERE id = $1
	`, userID, amount)
	return err
}

// creditBalance безусловно зачисляет amount на кошелёк пользователя.
func creditBalance(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE users SET wallet_balance = wallet_balance + $2, updated_at = NOW() WHERE id = $1
	`, userID, amount)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrUserNotFound
	}
	return nil
}
