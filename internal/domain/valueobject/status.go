package valueobject

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition возвращается при запросе нелегального перехода статуса
// или перехода, запрещённого для роли инициатора.
var ErrInvalidTransition = errors.New("invalid order status transition")

// OrderStatus статус заказа.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusDisputed  OrderStatus = "disputed"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Actor роль инициатора перехода относительно конкретного заказа.
type Actor string

const (
	ActorBuyer  Actor = "buyer"
	ActorSeller Actor = "seller"
	ActorAdmin  Actor = "admin"
)

// transitions — единственная таблица легальных переходов.
// completed и cancelled терминальны: исходящих рёбер нет.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusActive, OrderStatusCancelled},
	OrderStatusActive:    {OrderStatusDelivered, OrderStatusDisputed, OrderStatusCancelled},
	OrderStatusDelivered: {OrderStatusCompleted, OrderStatusDisputed},
	OrderStatusDisputed:  {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// actorStatuses — статусы, которые роль вправе запрашивать.
// Продавец может перевести pending -> active (особый случай, см. CanRequest).
var actorStatuses = map[Actor][]OrderStatus{
	ActorBuyer:  {OrderStatusCompleted, OrderStatusDisputed},
	ActorSeller: {OrderStatusDelivered, OrderStatusCancelled},
}

// IsValid проверяет принадлежность статуса перечислению.
func (s OrderStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal сообщает, терминален ли статус.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransitionTo проверяет наличие ребра s -> next в таблице переходов.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanRequest проверяет, вправе ли роль запрашивать переход from -> to.
// Таблицу рёбер ролевые ограничения не расширяют, только сужают.
func CanRequest(actor Actor, from, to OrderStatus) bool {
	if actor == ActorAdmin {
		return true
	}
	if actor == ActorSeller && from == OrderStatusPending && to == OrderStatusActive {
		return true
	}
	for _, allowed := range actorStatuses[actor] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition валидирует переход from -> to для роли actor.
// При любом нарушении возвращает ErrInvalidTransition, состояние не меняет.
func Transition(from OrderStatus, actor Actor, to OrderStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if !CanRequest(actor, from, to) {
		return fmt.Errorf("%w: %s -> %s is not allowed for %s", ErrInvalidTransition, from, to, actor)
	}
	return nil
}

// NewOrderStatus парсит строку в статус заказа.
func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	return s, nil
}
