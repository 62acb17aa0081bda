package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Роли пользователей маркетплейса
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
	RoleAdmin  = "admin"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleBuyer:  {},
	RoleSeller: {},
	RoleBoth:   {},
	RoleAdmin:  {},
}

// User описывает пользователя платформы и его кошелёк.
// WalletBalance изменяется только через ledger-функции слоя repository.
type User struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	Email         string          `db:"email" json:"email"`
	Name          string          `db:"name" json:"name"`
	PasswordHash  string          `db:"password_hash" json:"-"`
	Role          string          `db:"role" json:"role"`
	WalletBalance decimal.Decimal `db:"wallet_balance" json:"wallet_balance"`
	IsSuspended   bool            `db:"is_suspended" json:"is_suspended"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// CanBuy проверяет, может ли пользователь выступать покупателем.
func (u *User) CanBuy() bool {
	return u.Role == RoleBuyer || u.Role == RoleBoth || u.Role == RoleAdmin
}

// CanSell проверяет, может ли пользователь выступать продавцом.
func (u *User) CanSell() bool {
	return u.Role == RoleSeller || u.Role == RoleBoth || u.Role == RoleAdmin
}

// IsAdmin проверяет административную роль.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
