package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ignatzorin/marketplace-backend/internal/pkg/apperror"
)

// Арифметика денег только на decimal, float для сумм запрещён.

// NormalizeAmount приводит клиентскую сумму к положительному значению,
// округлённому до цента. Все суммы, приходящие извне (пополнения, этапы,
// выводы), проходят через эту нормализацию до любых проверок лимитов.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.New(apperror.ErrCodeValidation, "сумма должна быть положительной")
	}
	return amount.Round(2), nil
}
