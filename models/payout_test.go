package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func timePtr(t time.Time) *time.Time { return &t }

func payoutFixture() ([]*OrderRecord, PriceMap, *RateResolver, DateWindow, DateWindow) {
	orderWindow := DateWindow{From: day(2025, 7, 1), To: day(2025, 7, 15)}
	deliveredWindow := DateWindow{From: day(2025, 7, 1), To: day(2025, 7, 13)}

	orders := []*OrderRecord{
		{
			OrderId: "ORD-1", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			ProductName: "Blue Mug", Qty: 1, ProductValue: decimal.NewFromInt(500),
			Mode: ModeCOD, Status: StatusDelivered,
			OrderDate: day(2025, 7, 5), DeliveredDate: timePtr(day(2025, 7, 10)),
			ShippingProvider: "delhivery",
		},
		{
			OrderId: "ORD-2", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			Qty: 1, ProductValue: decimal.NewFromInt(200),
			Mode: ModeCOD, Status: StatusCancelled,
			OrderDate:        day(2025, 7, 6),
			ShippingProvider: "delhivery",
		},
		{
			OrderId: "ORD-3", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			Qty: 2, ProductValue: decimal.NewFromInt(400),
			Mode: ModePrepaid, Status: StatusOther,
			OrderDate:        day(2025, 7, 7),
			ShippingProvider: "delhivery",
		},
		{
			// Outside both windows: must not appear in the rows at all.
			OrderId: "ORD-4", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			Qty: 1, ProductValue: decimal.NewFromInt(100),
			Mode: ModeCOD, Status: StatusDelivered,
			OrderDate: day(2025, 6, 1), DeliveredDate: timePtr(day(2025, 6, 5)),
			ShippingProvider: "delhivery",
		},
		{
			// Delivered inside the delivered window, ordered before the order
			// window: delivered leg only, and no price config on file.
			OrderId: "ORD-5", DropshipperEmail: "seller@example.com", ProductUid: "SKU-NOPRICE",
			Qty: 1, ProductValue: decimal.NewFromInt(300),
			Mode: ModeCOD, Status: StatusDelivered,
			OrderDate: day(2025, 6, 20), DeliveredDate: timePtr(day(2025, 7, 12)),
			ShippingProvider: "delhivery",
		},
	}

	prices := PriceMap{
		priceMapKey("seller@example.com", "SKU-1"): {
			DropshipperEmail:   "seller@example.com",
			ProductUid:         "SKU-1",
			ProductWeight:      decimal.NewFromFloat(0.5),
			ProductCostPerUnit: decimal.NewFromInt(150),
		},
	}

	resolver := NewRateResolver(
		[]*ShippingRateConfig{
			{ProductUid: "SKU-1", ProductWeight: decimal.NewFromFloat(0.5), ShippingProvider: "delhivery", Rate: decimal.NewFromInt(25)},
		},
		[]*CarrierDefaultRate{
			{ShippingProvider: "delhivery", Rate: decimal.NewFromInt(30)},
			{ShippingProvider: GlobalDefaultProvider, Rate: decimal.NewFromInt(25)},
		},
		decimal.NewFromInt(25),
	)

	return orders, prices, resolver, orderWindow, deliveredWindow
}

func TestCalculatePayoutRowsFlatPerOrder(t *testing.T) {
	orders, prices, resolver, orderWindow, deliveredWindow := payoutFixture()

	rows, summary := CalculatePayoutRows(orders, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "")

	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	byId := make(map[string]*PayoutRow, len(rows))
	for _, r := range rows {
		byId[r.OrderId] = r
	}

	// Delivered COD order: both legs accrue.
	r1 := byId["ORD-1"]
	if !r1.ShippingCost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("ORD-1 shipping = %s, want 25", r1.ShippingCost)
	}
	if r1.RateSource != RateSourceExact {
		t.Fatalf("ORD-1 rate source = %q, want exact", r1.RateSource)
	}
	if !r1.ProductCost.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("ORD-1 product cost = %s, want 150", r1.ProductCost)
	}
	if !r1.CodReceived.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("ORD-1 cod = %s, want 500", r1.CodReceived)
	}
	if !r1.Payable.Equal(decimal.NewFromInt(325)) {
		t.Fatalf("ORD-1 payable = %s, want 325", r1.Payable)
	}

	// Cancelled order stays in the output with zero amounts.
	r2 := byId["ORD-2"]
	if !r2.ShippingCost.IsZero() || !r2.Payable.IsZero() {
		t.Fatalf("ORD-2 cancelled row should be all zero, got shipping %s payable %s", r2.ShippingCost, r2.Payable)
	}

	// Flat policy: rate x qty, weight irrelevant.
	r3 := byId["ORD-3"]
	if !r3.ShippingCost.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("ORD-3 shipping = %s, want 50 (25 x 2)", r3.ShippingCost)
	}
	if !r3.Payable.Equal(decimal.NewFromInt(-50)) {
		t.Fatalf("ORD-3 payable = %s, want -50", r3.Payable)
	}

	// Delivered leg only, COD verbatim, missing price config surfaces as a
	// warning count rather than an error.
	r5 := byId["ORD-5"]
	if !r5.ShippingCost.IsZero() {
		t.Fatalf("ORD-5 shipping = %s, want 0 (outside order window)", r5.ShippingCost)
	}
	if !r5.CodReceived.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("ORD-5 cod = %s, want 300", r5.CodReceived)
	}

	if _, ok := byId["ORD-4"]; ok {
		t.Fatalf("ORD-4 is outside both windows and must be excluded")
	}

	if summary.TotalOrders != 4 {
		t.Fatalf("TotalOrders = %d, want 4", summary.TotalOrders)
	}
	if summary.OrdersWithShippingCharges != 2 {
		t.Fatalf("OrdersWithShippingCharges = %d, want 2", summary.OrdersWithShippingCharges)
	}
	if summary.OrdersWithProductAmount != 2 {
		t.Fatalf("OrdersWithProductAmount = %d, want 2", summary.OrdersWithProductAmount)
	}
	if summary.OrdersWithCodAmount != 2 {
		t.Fatalf("OrdersWithCodAmount = %d, want 2", summary.OrdersWithCodAmount)
	}
	if summary.MissingPriceConfigs != 1 {
		t.Fatalf("MissingPriceConfigs = %d, want 1", summary.MissingPriceConfigs)
	}
	if !summary.TotalShippingCost.Equal(decimal.NewFromInt(75)) {
		t.Fatalf("TotalShippingCost = %s, want 75", summary.TotalShippingCost)
	}
	if !summary.TotalPayable.Equal(decimal.NewFromInt(575)) {
		t.Fatalf("TotalPayable = %s, want 575", summary.TotalPayable)
	}

	// Sum of row payables must equal the summary exactly, no float drift.
	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Payable)
	}
	if !sum.Equal(summary.TotalPayable) {
		t.Fatalf("row payables sum to %s, summary says %s", sum, summary.TotalPayable)
	}
}

func TestCalculatePayoutRowsPerKg(t *testing.T) {
	orders, prices, resolver, orderWindow, deliveredWindow := payoutFixture()

	rows, _ := CalculatePayoutRows(orders, prices, resolver, orderWindow, deliveredWindow, ChargePerKg, "")
	for _, r := range rows {
		if r.OrderId != "ORD-3" {
			continue
		}
		// rate 25 x qty 2 x weight 0.5
		if !r.ShippingCost.Equal(decimal.NewFromInt(25)) {
			t.Fatalf("ORD-3 per-kg shipping = %s, want 25", r.ShippingCost)
		}
		return
	}
	t.Fatalf("ORD-3 missing from rows")
}

func TestCalculatePayoutRowsCollapsesReuploadedOrders(t *testing.T) {
	_, prices, resolver, orderWindow, deliveredWindow := payoutFixture()

	// The same physical order from two upload sessions: first in transit,
	// then re-uploaded as delivered. Exactly one payout row, one shipping
	// charge, built from the later row.
	orders := []*OrderRecord{
		{
			ID: 1, OrderId: "ORD-R", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			Qty: 1, ProductValue: decimal.NewFromInt(500),
			Mode: ModeCOD, Status: StatusOther,
			OrderDate: day(2025, 7, 5), ShippingProvider: "delhivery",
			UploadSessionId: "session-1", UpdatedAt: day(2025, 7, 6),
		},
		{
			ID: 2, OrderId: "ORD-R", DropshipperEmail: "seller@example.com", ProductUid: "SKU-1",
			Qty: 1, ProductValue: decimal.NewFromInt(500),
			Mode: ModeCOD, Status: StatusDelivered,
			OrderDate: day(2025, 7, 5), DeliveredDate: timePtr(day(2025, 7, 10)),
			ShippingProvider: "delhivery",
			UploadSessionId:  "session-2", UpdatedAt: day(2025, 7, 11),
		},
	}

	rows, summary := CalculatePayoutRows(orders, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "")
	if len(rows) != 1 {
		t.Fatalf("one physical order produced %d payout rows", len(rows))
	}
	r := rows[0]
	if r.Status != StatusDelivered {
		t.Fatalf("status = %q, want the re-uploaded delivered row to win", r.Status)
	}
	if !r.ShippingCost.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("shipping = %s, want 25 charged once", r.ShippingCost)
	}
	if !r.CodReceived.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("cod = %s, want 500 counted once", r.CodReceived)
	}
	if summary.TotalOrders != 1 {
		t.Fatalf("TotalOrders = %d, want 1", summary.TotalOrders)
	}

	// Input order must not decide the winner.
	reversed := []*OrderRecord{orders[1], orders[0]}
	rows2, _ := CalculatePayoutRows(reversed, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "")
	if len(rows2) != 1 || rows2[0].Status != StatusDelivered {
		t.Fatalf("collapse depends on input order")
	}
}

func TestCalculatePayoutRowsDeterministicOrder(t *testing.T) {
	orders, prices, resolver, orderWindow, deliveredWindow := payoutFixture()
	reversed := make([]*OrderRecord, 0, len(orders))
	for i := len(orders) - 1; i >= 0; i-- {
		reversed = append(reversed, orders[i])
	}

	rows1, _ := CalculatePayoutRows(orders, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "")
	rows2, _ := CalculatePayoutRows(reversed, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "")

	if len(rows1) != len(rows2) {
		t.Fatalf("row counts differ: %d vs %d", len(rows1), len(rows2))
	}
	for i := range rows1 {
		if rows1[i].OrderId != rows2[i].OrderId {
			t.Fatalf("row %d differs by input order: %q vs %q", i, rows1[i].OrderId, rows2[i].OrderId)
		}
	}
}

func TestCalculatePayoutRowsDropshipperFilter(t *testing.T) {
	orders, prices, resolver, orderWindow, deliveredWindow := payoutFixture()
	orders = append(orders, &OrderRecord{
		OrderId: "ORD-9", DropshipperEmail: "other@example.com", ProductUid: "SKU-1",
		Qty: 1, ProductValue: decimal.NewFromInt(100), Mode: ModeCOD, Status: StatusDelivered,
		OrderDate: day(2025, 7, 8), DeliveredDate: timePtr(day(2025, 7, 9)),
		ShippingProvider: "delhivery",
	})

	rows, _ := CalculatePayoutRows(orders, prices, resolver, orderWindow, deliveredWindow, ChargeFlatPerOrder, "Seller@Example.com")
	for _, r := range rows {
		if r.DropshipperEmail != "seller@example.com" {
			t.Fatalf("filter leaked row for %q", r.DropshipperEmail)
		}
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
}

func TestApplyReversals(t *testing.T) {
	s := &PayoutSummary{
		TotalPayable: decimal.NewFromInt(575),
		FinalPayable: decimal.NewFromInt(575),
	}
	s.ApplyReversals([]*ReconciliationRecord{
		{ReversalAmount: decimal.NewFromInt(350), Status: ReconciliationProcessed},
		{ReversalAmount: decimal.NewFromInt(100), Status: ReconciliationPending},
		{ReversalAmount: decimal.NewFromInt(40), Status: ReconciliationDisputed},
	})

	if !s.TotalReversals.Equal(decimal.NewFromInt(350)) {
		t.Fatalf("TotalReversals = %s, want 350 (processed only)", s.TotalReversals)
	}
	if !s.FinalPayable.Equal(decimal.NewFromInt(225)) {
		t.Fatalf("FinalPayable = %s, want 225", s.FinalPayable)
	}
}

func TestParseChargePolicy(t *testing.T) {
	cases := []struct {
		in      string
		want    ChargePolicy
		wantErr bool
	}{
		{"", ChargeFlatPerOrder, false},
		{"flat", ChargeFlatPerOrder, false},
		{"flat_per_order", ChargeFlatPerOrder, false},
		{"per_kg", ChargePerKg, false},
		{"PerKg", ChargePerKg, false},
		{"by_volume", "", true},
	}
	for _, c := range cases {
		got, err := ParseChargePolicy(c.in)
		if c.wantErr {
			if err == nil {
				t.Fatalf("ParseChargePolicy(%q): expected error", c.in)
			}
			continue
		}
		if err != nil || got != c.want {
			t.Fatalf("ParseChargePolicy(%q) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}

func TestDateWindowContains(t *testing.T) {
	w := DateWindow{From: day(2025, 7, 1), To: day(2025, 7, 15)}

	// Inclusive on both ends, and time-of-day must not matter.
	if !w.Contains(day(2025, 7, 1)) || !w.Contains(day(2025, 7, 15)) {
		t.Fatalf("window boundaries must be inclusive")
	}
	if !w.Contains(time.Date(2025, 7, 15, 23, 59, 0, 0, time.UTC)) {
		t.Fatalf("time of day must not push a date out of the window")
	}
	if w.Contains(day(2025, 6, 30)) || w.Contains(day(2025, 7, 16)) {
		t.Fatalf("dates outside the window must not match")
	}
}
