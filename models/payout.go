package models

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
)

// DateWindow is an inclusive calendar-day range. The two windows of a payout
// calculation are independent: the order window drives shipping cost, the
// delivered window drives COD and product cost.
type DateWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t's calendar day falls inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	from := time.Date(w.From.Year(), w.From.Month(), w.From.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(w.To.Year(), w.To.Month(), w.To.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(from) && !day.After(to)
}

func (w DateWindow) IsValid() bool {
	return !w.To.Before(w.From)
}

// ChargePolicy names the shipping charge formula in effect. Historically the
// source data has been billed both ways, so the caller must declare which one
// applies instead of the engine guessing.
type ChargePolicy string

const (
	// ChargeFlatPerOrder bills rate × quantity.
	ChargeFlatPerOrder ChargePolicy = "flat_per_order"
	// ChargePerKg bills rate × quantity × product weight (kg).
	ChargePerKg ChargePolicy = "per_kg"
)

var ErrUnknownChargePolicy = errors.New("unknown charge policy")

// ParseChargePolicy maps a request string to a policy; empty defaults to
// flat per order.
func ParseChargePolicy(s string) (ChargePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ChargeFlatPerOrder), "flat":
		return ChargeFlatPerOrder, nil
	case string(ChargePerKg), "perkg":
		return ChargePerKg, nil
	default:
		return "", ErrUnknownChargePolicy
	}
}

// PayoutRow is the per-order financial breakdown. Rows are derived on every
// request, never persisted as truth; the persisted payout ledger is written
// only at settlement-export time.
type PayoutRow struct {
	OrderId          string          `json:"orderId"`
	Waybill          string          `json:"waybill"`
	DropshipperEmail string          `json:"dropshipperEmail"`
	ProductUid       string          `json:"productUid"`
	ProductName      string          `json:"productName"`
	Qty              int             `json:"qty"`
	Mode             PaymentMode     `json:"mode"`
	Status           OrderStatus     `json:"status"`
	OrderDate        time.Time       `json:"orderDate"`
	DeliveredDate    *time.Time      `json:"deliveredDate"`
	ProductWeight    decimal.Decimal `json:"productWeight"`
	ShippingProvider string          `json:"shippingProvider"`
	Rate             decimal.Decimal `json:"rate"`
	RateSource       RateSource      `json:"rateSource"`
	ShippingCost     decimal.Decimal `json:"shippingCost"`
	ProductCost      decimal.Decimal `json:"productCost"`
	CodReceived      decimal.Decimal `json:"codReceived"`
	Payable          decimal.Decimal `json:"payable"`
}

// PayoutSummary aggregates the rows. Counts reflect only orders that actually
// contributed to the corresponding total, not every order in the window.
type PayoutSummary struct {
	TotalOrders               int             `json:"totalOrders"`
	OrdersWithShippingCharges int             `json:"ordersWithShippingCharges"`
	OrdersWithProductAmount   int             `json:"ordersWithProductAmount"`
	OrdersWithCodAmount       int             `json:"ordersWithCodAmount"`
	TotalShippingCost         decimal.Decimal `json:"totalShippingCost"`
	TotalProductCost          decimal.Decimal `json:"totalProductCost"`
	TotalCodReceived          decimal.Decimal `json:"totalCodReceived"`
	TotalPayable              decimal.Decimal `json:"totalPayable"`
	TotalReversals            decimal.Decimal `json:"totalReversals"`
	FinalPayable              decimal.Decimal `json:"finalPayable"`
	// Data-completeness warnings (spec'd to never block a result).
	MissingPriceConfigs int `json:"missingPriceConfigs"`
	DefaultRateOrders   int `json:"defaultRateOrders"`
}

func newPayoutSummary() *PayoutSummary {
	zero := decimal.Zero
	return &PayoutSummary{
		TotalShippingCost: zero,
		TotalProductCost:  zero,
		TotalCodReceived:  zero,
		TotalPayable:      zero,
		TotalReversals:    zero,
		FinalPayable:      zero,
	}
}

// latestOrders collapses the order set to one row per (dropshipper, order id).
// Import upserts keep the table single-rowed, but an in-memory set assembled
// elsewhere may still carry a re-uploaded order twice; the most recently
// updated row wins (tie broken by id), so money is never counted twice for
// one physical order.
func latestOrders(orders []*OrderRecord) []*OrderRecord {
	latest := make(map[string]*OrderRecord, len(orders))
	for _, o := range orders {
		k := orderKey(o.DropshipperEmail, o.OrderId)
		prev, ok := latest[k]
		if !ok || o.UpdatedAt.After(prev.UpdatedAt) ||
			(o.UpdatedAt.Equal(prev.UpdatedAt) && o.ID > prev.ID) {
			latest[k] = o
		}
	}
	out := make([]*OrderRecord, 0, len(latest))
	for _, o := range latest {
		out = append(out, o)
	}
	return out
}

// CalculatePayoutRows runs the payout algorithm over an in-memory order set.
// Pure: identical inputs produce identical rows in identical order.
//
// Shipping accrues when the order date is inside the order window and the
// order is not cancelled. COD and product cost accrue when the delivered date
// is inside the delivered window and the order is delivered. The two checks
// are independent; one order can accrue both, either, or neither (in which
// case it is excluded from the rows entirely).
func CalculatePayoutRows(
	orders []*OrderRecord,
	prices PriceMap,
	resolver *RateResolver,
	orderWindow DateWindow,
	deliveredWindow DateWindow,
	policy ChargePolicy,
	dropshipperEmail string,
) ([]*PayoutRow, *PayoutSummary) {

	summary := newPayoutSummary()
	filter := strings.ToLower(strings.TrimSpace(dropshipperEmail))
	rows := make([]*PayoutRow, 0, len(orders))

	for _, o := range latestOrders(orders) {
		if filter != "" && filter != "all" && o.DropshipperEmail != filter {
			continue
		}

		inOrderWindow := orderWindow.Contains(o.OrderDate)
		inDeliveredWindow := o.DeliveredDate != nil && deliveredWindow.Contains(*o.DeliveredDate)
		if !inOrderWindow && !inDeliveredWindow {
			continue
		}

		priceCfg, havePrice := prices.Lookup(o.DropshipperEmail, o.ProductUid)
		weight := decimal.Zero
		if havePrice {
			weight = priceCfg.ProductWeight
		}

		row := &PayoutRow{
			OrderId:          o.OrderId,
			Waybill:          utils.DereferencePtr(o.Waybill),
			DropshipperEmail: o.DropshipperEmail,
			ProductUid:       o.ProductUid,
			ProductName:      o.ProductName,
			Qty:              o.Qty,
			Mode:             o.Mode,
			Status:           o.Status,
			OrderDate:        o.OrderDate,
			DeliveredDate:    o.DeliveredDate,
			ProductWeight:    weight,
			ShippingProvider: o.ShippingProvider,
			Rate:             decimal.Zero,
			ShippingCost:     decimal.Zero,
			ProductCost:      decimal.Zero,
			CodReceived:      decimal.Zero,
		}

		// Shipping leg. Cancelled orders stay in the output with zero cost.
		if inOrderWindow && o.Status != StatusCancelled {
			rate, source := resolver.Resolve(o.ProductUid, weight, o.ShippingProvider)
			row.Rate = rate
			row.RateSource = source

			qty := decimal.NewFromInt(int64(o.Qty))
			switch policy {
			case ChargePerKg:
				row.ShippingCost = rate.Mul(qty).Mul(weight)
			default:
				row.ShippingCost = rate.Mul(qty)
			}

			summary.OrdersWithShippingCharges++
			if source == RateSourceDefault {
				summary.DefaultRateOrders++
			}
		}

		// Delivered leg: COD received verbatim (no rounding) plus product cost.
		if inDeliveredWindow && o.Status == StatusDelivered {
			if havePrice {
				row.ProductCost = priceCfg.ProductCostPerUnit.Mul(decimal.NewFromInt(int64(o.Qty)))
			} else {
				summary.MissingPriceConfigs++
			}
			if o.Mode == ModeCOD {
				row.CodReceived = o.ProductValue
			}

			summary.OrdersWithProductAmount++
			if row.CodReceived.IsPositive() {
				summary.OrdersWithCodAmount++
			}
		}

		row.Payable = row.CodReceived.Sub(row.ProductCost).Sub(row.ShippingCost)

		summary.TotalShippingCost = summary.TotalShippingCost.Add(row.ShippingCost)
		summary.TotalProductCost = summary.TotalProductCost.Add(row.ProductCost)
		summary.TotalCodReceived = summary.TotalCodReceived.Add(row.CodReceived)
		summary.TotalPayable = summary.TotalPayable.Add(row.Payable)

		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderDate.Equal(rows[j].OrderDate) {
			return rows[i].OrderId < rows[j].OrderId
		}
		return rows[i].OrderDate.Before(rows[j].OrderDate)
	})

	summary.TotalOrders = len(rows)
	summary.FinalPayable = summary.TotalPayable
	return rows, summary
}

// ApplyReversals subtracts confirmed reversal amounts from the summary's
// final payable. History is never mutated; reversals only affect aggregation.
func (s *PayoutSummary) ApplyReversals(reversals []*ReconciliationRecord) {
	total := decimal.Zero
	for _, r := range reversals {
		if r.Status == ReconciliationProcessed {
			total = total.Add(r.ReversalAmount)
		}
	}
	s.TotalReversals = total
	s.FinalPayable = s.TotalPayable.Sub(total)
}
