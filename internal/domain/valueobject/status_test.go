package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusActive, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusDisputed, false},

		{OrderStatusActive, OrderStatusDelivered, true},
		{OrderStatusActive, OrderStatusDisputed, true},
		{OrderStatusActive, OrderStatusCancelled, true},
		{OrderStatusActive, OrderStatusCompleted, false},
		{OrderStatusActive, OrderStatusPending, false},

		{OrderStatusDelivered, OrderStatusCompleted, true},
		{OrderStatusDelivered, OrderStatusDisputed, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusActive, false},

		{OrderStatusDisputed, OrderStatusCompleted, true},
		{OrderStatusDisputed, OrderStatusCancelled, true},
		{OrderStatusDisputed, OrderStatusActive, false},
		{OrderStatusDisputed, OrderStatusDelivered, false},

		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusActive, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCompleted, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equal(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.True(t, OrderStatusCompleted.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusActive.IsTerminal())
	assert.False(t, OrderStatusDelivered.IsTerminal())
	assert.False(t, OrderStatusDisputed.IsTerminal())
}

func TestCanRequest_Buyer(t *testing.T) {
	// Покупатель подтверждает доставку и открывает спор
	assert.True(t, CanRequest(ActorBuyer, OrderStatusDelivered, OrderStatusCompleted))
	assert.True(t, CanRequest(ActorBuyer, OrderStatusActive, OrderStatusDisputed))
	assert.True(t, CanRequest(ActorBuyer, OrderStatusDelivered, OrderStatusDisputed))

	// Но не помечает доставку и не отменяет
	assert.False(t, CanRequest(ActorBuyer, OrderStatusActive, OrderStatusDelivered))
	assert.False(t, CanRequest(ActorBuyer, OrderStatusActive, OrderStatusCancelled))
	assert.False(t, CanRequest(ActorBuyer, OrderStatusPending, OrderStatusActive))
}

func TestCanRequest_Seller(t *testing.T) {
	// Продавец помечает доставку, отменяет и активирует pending-заказ
	assert.True(t, CanRequest(ActorSeller, OrderStatusActive, OrderStatusDelivered))
	assert.True(t, CanRequest(ActorSeller, OrderStatusActive, OrderStatusCancelled))
	assert.True(t, CanRequest(ActorSeller, OrderStatusPending, OrderStatusActive))

	// Но не завершает заказ и не открывает споры
	assert.False(t, CanRequest(ActorSeller, OrderStatusDelivered, OrderStatusCompleted))
	assert.False(t, CanRequest(ActorSeller, OrderStatusActive, OrderStatusDisputed))
}

func TestCanRequest_Admin(t *testing.T) {
	// Администратору доступно любое легальное ребро
	assert.True(t, CanRequest(ActorAdmin, OrderStatusDisputed, OrderStatusCompleted))
	assert.True(t, CanRequest(ActorAdmin, OrderStatusDisputed, OrderStatusCancelled))
	assert.True(t, CanRequest(ActorAdmin, OrderStatusPending, OrderStatusActive))
	assert.True(t, CanRequest(ActorAdmin, OrderStatusActive, OrderStatusDelivered))
}

func TestTransition(t *testing.T) {
	assert.NoError(t, Transition(OrderStatusDelivered, ActorBuyer, OrderStatusCompleted))
	assert.NoError(t, Transition(OrderStatusDisputed, ActorAdmin, OrderStatusCancelled))

	// Нелегальное ребро
	err := Transition(OrderStatusPending, ActorAdmin, OrderStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Легальное ребро, но чужая роль
	err = Transition(OrderStatusDelivered, ActorSeller, OrderStatusCompleted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Из терминального статуса выхода нет даже админу
	err = Transition(OrderStatusCompleted, ActorAdmin, OrderStatusCancelled)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestNewOrderStatus(t *testing.T) {
	s, err := NewOrderStatus("active")
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusActive, s)

	_, err = NewOrderStatus("refunded")
	assert.Error(t, err)
}
