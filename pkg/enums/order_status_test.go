package enums

import "testing"

func TestOrderStatusTerminality(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
		for _, next := range validOrderStatuses {
			if s.CanTransitionTo(next) {
				t.Fatalf("terminal %s must not transition to %s", s, next)
			}
		}
	}
	if OrderStatusFailed.IsTerminal() {
		t.Fatalf("FAILED is not terminal")
	}
}

func TestOrderStatusCancelReachableFromNonTerminal(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusAssigned,
		OrderStatusOutForDelivery,
	} {
		if !s.CanTransitionTo(OrderStatusCancelled) {
			t.Fatalf("%s should be cancellable", s)
		}
		if !s.CanTransitionTo(OrderStatusFailed) {
			t.Fatalf("%s should be able to fail", s)
		}
	}
}

func TestOrderStatusForwardOnly(t *testing.T) {
	if !OrderStatusPending.CanTransitionTo(OrderStatusConfirmed) {
		t.Fatalf("PENDING -> CONFIRMED should be allowed")
	}
	if !OrderStatusPending.CanTransitionTo(OrderStatusProcessing) {
		t.Fatalf("skipping forward should be allowed")
	}
	if !OrderStatusAssigned.CanTransitionTo(OrderStatusDelivered) {
		t.Fatalf("ASSIGNED -> DELIVERED should be allowed")
	}
	if OrderStatusProcessing.CanTransitionTo(OrderStatusPending) {
		t.Fatalf("backwards transition must be rejected")
	}
	if OrderStatusPending.CanTransitionTo(OrderStatusPending) {
		t.Fatalf("self transition must be rejected")
	}
	if OrderStatusFailed.CanTransitionTo(OrderStatusConfirmed) {
		t.Fatalf("FAILED must not rejoin the forward chain")
	}
	if !OrderStatusFailed.CanTransitionTo(OrderStatusCancelled) {
		t.Fatalf("FAILED -> CANCELLED should be allowed")
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("SHIPPED"); err == nil {
		t.Fatalf("unknown status should be rejected")
	}
	got, err := ParseOrderStatus("OUT_FOR_DELIVERY")
	if err != nil || got != OrderStatusOutForDelivery {
		t.Fatalf("unexpected parse result %v, %v", got, err)
	}
}
