package models

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want OrderStatus
	}{
		{"Delivered", StatusDelivered},
		{"DELIVERED", StatusDelivered},
		{"Delivered to customer", StatusDelivered},
		{"RTS", StatusRTS},
		{"RTS Initiated", StatusRTS},
		{"RTO", StatusRTO},
		{"rto in transit", StatusRTO},
		{"RTO Dispatched", StatusRTODispatched},
		{"RTO-Dispatched", StatusRTODispatched},
		{"rto_dispatched", StatusRTODispatched},
		{"Cancelled", StatusCancelled},
		{"Cancellation Requested", StatusCancelled},
		{"In Transit", StatusOther},
		{"Out for delivery", StatusDelivered},
		{"", StatusOther},
		{"   ", StatusOther},
		{"Shipped", StatusOther},
	}
	for _, c := range cases {
		if got := NormalizeStatus(c.raw); got != c.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestNormalizeStatusChecksDispatchedBeforeRTO(t *testing.T) {
	// "RTO Dispatched" contains "rto" as a substring; the dispatched variant
	// must win.
	if got := NormalizeStatus("RTO Dispatched 12-May"); got != StatusRTODispatched {
		t.Fatalf("got %q, want %q", got, StatusRTODispatched)
	}
}

func TestIsReturned(t *testing.T) {
	returned := []OrderStatus{StatusRTS, StatusRTO, StatusRTODispatched}
	for _, s := range returned {
		if !s.IsReturned() {
			t.Fatalf("%q should be a return status", s)
		}
	}
	notReturned := []OrderStatus{StatusDelivered, StatusCancelled, StatusOther}
	for _, s := range notReturned {
		if s.IsReturned() {
			t.Fatalf("%q should not be a return status", s)
		}
	}
}

func TestNormalizeMode(t *testing.T) {
	cases := []struct {
		raw  string
		want PaymentMode
	}{
		{"COD", ModeCOD},
		{"cod", ModeCOD},
		{"Cash On Delivery", ModeCOD},
		{"Prepaid", ModePrepaid},
		{"UPI", ModePrepaid},
		{"", ModePrepaid},
	}
	for _, c := range cases {
		if got := NormalizeMode(c.raw); got != c.want {
			t.Fatalf("NormalizeMode(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestProductKeyPrefersSku(t *testing.T) {
	row := &OrderImportRow{ProductSku: " SKU-9 ", ProductName: "Blue Mug"}
	if got := row.ProductKey(); got != "SKU-9" {
		t.Fatalf("got %q, want SKU-9", got)
	}
	row.ProductSku = ""
	if got := row.ProductKey(); got != "Blue Mug" {
		t.Fatalf("got %q, want Blue Mug", got)
	}
}
