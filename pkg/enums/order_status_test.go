package enums

import "testing"

func TestOrderStatusTerminal(t *testing.T) {
	if !OrderStatusDelivered.IsTerminal() {
		t.Fatalf("delivered must be terminal")
	}
	if !OrderStatusCancelled.IsTerminal() {
		t.Fatalf("cancelled must be terminal")
	}
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusReady, OrderStatusOutForDelivery} {
		if s.IsTerminal() {
			t.Fatalf("%s must not be terminal", s)
		}
	}
}

func TestOrderStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusDelivered, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusPreparing, OrderStatusConfirmed, false},
		{OrderStatusReady, OrderStatusCancelled, true},
		{OrderStatusOutForDelivery, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("out_for_delivery")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OrderStatusOutForDelivery {
		t.Fatalf("unexpected status %s", status)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestProgressionSequenceIsForwardOnly(t *testing.T) {
	previous := OrderStatusPending
	for _, status := range ProgressionSequence {
		if !previous.CanTransitionTo(status) {
			t.Fatalf("progression step %s -> %s must be a legal transition", previous, status)
		}
		previous = status
	}
	if previous != OrderStatusDelivered {
		t.Fatalf("progression must end at delivered, got %s", previous)
	}
}
