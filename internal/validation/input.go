package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Константы валидации
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // предел bcrypt

	MinNameLength = 2
	MaxNameLength = 100

	MinGigTitleLength       = 3
	MaxGigTitleLength       = 200
	MinGigDescriptionLength = 10
	MaxGigDescriptionLength = 5000
	MaxCategoryLength       = 100

	MinMilestoneTitleLength = 1
	MaxMilestoneTitleLength = 200

	MinDisputeReasonLength = 10
	MaxDisputeReasonLength = 2000

	MaxReviewCommentLength = 2000

	MinRating = 1
	MaxRating = 5
)

// Денежные пределы
var (
	MaxAmount      = decimal.NewFromInt(100000000) // 100 миллионов
	MinTopupAmount = decimal.NewFromInt(5)
	MaxTopupAmount = decimal.NewFromInt(10000)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidatePassword проверяет длину пароля.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("пароль обязателен")
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("пароль должен быть не менее %d символов", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("пароль должен быть не более %d символов", MaxPasswordLength)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateName проверяет имя пользователя.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("имя обязательно")
	}
	return ValidateLength("имя", strings.TrimSpace(name), MinNameLength, MaxNameLength)
}

// ValidateGigTitle проверяет заголовок гига.
func ValidateGigTitle(title string) error {
	if title == "" {
		return fmt.Errorf("заголовок гига обязателен")
	}
	return ValidateLength("заголовок гига", strings.TrimSpace(title), MinGigTitleLength, MaxGigTitleLength)
}

// ValidateGigDescription проверяет описание гига.
func ValidateGigDescription(description string) error {
	if description == "" {
		return fmt.Errorf("описание гига обязательно")
	}
	return ValidateLength("описание гига", strings.TrimSpace(description), MinGigDescriptionLength, MaxGigDescriptionLength)
}

// ValidateAmount проверяет, что денежная сумма положительна и в разумных пределах.
func ValidateAmount(fieldName string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s должна быть положительной", fieldName)
	}
	if amount.GreaterThan(MaxAmount) {
		return fmt.Errorf("%s не может превышать %s", fieldName, MaxAmount.String())
	}
	return nil
}

// ValidateTopupAmount проверяет сумму пополнения кошелька.
func ValidateTopupAmount(amount decimal.Decimal) error {
	if amount.LessThan(MinTopupAmount) {
		return fmt.Errorf("сумма пополнения должна быть не менее %s", MinTopupAmount.String())
	}
	if amount.GreaterThan(MaxTopupAmount) {
		return fmt.Errorf("сумма пополнения не может превышать %s", MaxTopupAmount.String())
	}
	return nil
}

// ValidateRating проверяет оценку отзыва.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateDisputeReason проверяет причину спора.
func ValidateDisputeReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("причина спора обязательна")
	}
	return ValidateLength("причина спора", strings.TrimSpace(reason), MinDisputeReasonLength, MaxDisputeReasonLength)
}
