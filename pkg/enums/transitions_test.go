package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPaid, false},
		{OrderStatusFailed, OrderStatusPaid, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusCompleted, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusPending, PaymentStatusRefunded, false},
		{PaymentStatusCompleted, PaymentStatusRefunded, true},
		{PaymentStatusCompleted, PaymentStatusPending, false},
		{PaymentStatusFailed, PaymentStatusCompleted, false},
		{PaymentStatusRefunded, PaymentStatusCompleted, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestParseDeliveryStatus(t *testing.T) {
	t.Parallel()

	for _, value := range []string{"processing", "dispatched", "in_transit", "delivered", "cancelled"} {
		status, err := ParseDeliveryStatus(value)
		if err != nil {
			t.Fatalf("ParseDeliveryStatus(%q) returned error: %v", value, err)
		}
		if status.String() != value {
			t.Errorf("ParseDeliveryStatus(%q) = %q", value, status)
		}
	}

	if _, err := ParseDeliveryStatus("shipped"); err == nil {
		t.Error("expected error for unknown delivery status")
	}
}

func TestParseItemKind(t *testing.T) {
	t.Parallel()

	if _, err := ParseItemKind("product"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseItemKind("bundle"); err == nil {
		t.Error("expected error for unknown item kind")
	}
}
