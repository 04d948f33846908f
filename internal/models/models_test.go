package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{OrderStatusNotProcessed, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},

		// no skipping ahead
		{OrderStatusNotProcessed, OrderStatusShipped, false},
		{OrderStatusNotProcessed, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusDelivered, false},

		// no moving backwards
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusShipped, false},

		// cancellation from any non-terminal state
		{OrderStatusNotProcessed, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},

		// terminal states stay terminal
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusDelivered, false},

		{"garbage", OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to),
			"transition %q -> %q", tc.from, tc.to)
	}
}

func TestValidPaymentMethod(t *testing.T) {
	assert.True(t, ValidPaymentMethod(PaymentMethodCOD))
	assert.True(t, ValidPaymentMethod(PaymentMethodCard))
	assert.True(t, ValidPaymentMethod(PaymentMethodPaypal))

	assert.False(t, ValidPaymentMethod(""))
	assert.False(t, ValidPaymentMethod("COD"))
	assert.False(t, ValidPaymentMethod("bitcoin"))
}
