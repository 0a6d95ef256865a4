package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
)

type ReconciliationStatus string

const (
	ReconciliationPending   ReconciliationStatus = "pending"
	ReconciliationProcessed ReconciliationStatus = "processed"
	ReconciliationDisputed  ReconciliationStatus = "disputed"
)

// RtsRtoStatus values mirror the carrier-facing labels, not the normalized
// order statuses, because operators read them off courier panels.
const (
	RtsRtoRTS           = "RTS"
	RtsRtoRTO           = "RTO"
	RtsRtoRTODispatched = "RTO-Dispatched"
)

var (
	ErrAlreadyReconciled = errors.New("order already has a reconciliation record")

	reconcileValidate = validator.New()
)

// ReconciliationRecord is an append-only ledger entry reversing a previously
// paid amount. Financially immutable once created; corrections are new
// records, never edits.
type ReconciliationRecord struct {
	ID                 int                  `gorm:"primary_key" json:"id"`
	OrderId            string               `gorm:"size:100;not null;index" json:"orderId" validate:"required"`
	DropshipperEmail   string               `gorm:"size:255;not null;index" json:"dropshipperEmail" validate:"required,email"`
	ProductUid         string               `gorm:"size:255" json:"productUid"`
	OriginalPayoutId   string               `gorm:"size:64" json:"originalPayoutId"`
	OriginalPaidAmount decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"originalPaidAmount"`
	ReversalAmount     decimal.Decimal      `gorm:"type:decimal(20,4);not null" json:"reversalAmount" validate:"required"`
	RtsRtoStatus       string               `gorm:"size:32" json:"rtsRtoStatus"`
	RtsRtoDate         *time.Time           `json:"rtsRtoDate"`
	ReconciledOn       time.Time            `gorm:"not null" json:"reconciledOn"`
	ReconciledBy       string               `gorm:"size:255" json:"reconciledBy"`
	Notes              string               `gorm:"type:text" json:"notes"`
	Status             ReconciliationStatus `gorm:"type:enum('pending','processed','disputed');not null;default:'pending'" json:"status"`
	// Force permits a deliberate second reversal for an order that already
	// has a record; without it Reconcile refuses duplicates.
	Force     bool      `gorm:"-" json:"force"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// ReversalSuggestion is an auto-detected candidate reversal. The rationale is
// mandatory: a human confirms every reversal, and the suggestion must carry
// enough context to audit the decision.
type ReversalSuggestion struct {
	OrderId            string          `json:"orderId"`
	DropshipperEmail   string          `json:"dropshipperEmail"`
	ProductUid         string          `json:"productUid"`
	OriginalPayoutId   string          `json:"originalPayoutId"`
	OriginalPaidAmount decimal.Decimal `json:"originalPaidAmount"`
	SuggestedReversal  decimal.Decimal `json:"suggestedReversal"`
	CurrentStatus      OrderStatus     `json:"currentStatus"`
	StatusAtPayout     OrderStatus     `json:"statusAtPayout"`
	RtsRtoStatus       string          `json:"rtsRtoStatus"`
	Confidence         string          `json:"confidence"` // high | medium | low
	Rationale          string          `json:"rationale"`
}

// rtsRtoLabel converts a normalized return status to the operator-facing label.
func rtsRtoLabel(s OrderStatus) string {
	switch s {
	case StatusRTS:
		return RtsRtoRTS
	case StatusRTODispatched:
		return RtsRtoRTODispatched
	default:
		return RtsRtoRTO
	}
}

// detectReversalSuggestions is the pure core of AutoDetectReversals: it takes
// the current returned orders, the payout ledger indexed by orderKey, and the
// orderKey set that already has reconciliation records. All indexing is per
// (dropshipper, order id) so shared order ids never cross dropshippers.
func detectReversalSuggestions(
	orders []*OrderRecord,
	ledger map[string]*PayoutLedgerEntry,
	reconciled map[string]bool,
) []*ReversalSuggestion {

	suggestions := make([]*ReversalSuggestion, 0)
	for _, o := range orders {
		if !o.Status.IsReturned() {
			continue
		}
		key := orderKey(o.DropshipperEmail, o.OrderId)
		paid, wasPaid := ledger[key]
		if !wasPaid {
			// Never paid out: nothing to reverse, pending-query territory.
			continue
		}
		if paid.StatusAtPayout == o.Status {
			// Status unchanged since payment; the payout still reflects reality.
			continue
		}

		// The reversal claws back what was actually paid at the time, not the
		// order's current recorded value, which may have been re-uploaded since.
		s := &ReversalSuggestion{
			OrderId:            o.OrderId,
			DropshipperEmail:   o.DropshipperEmail,
			ProductUid:         o.ProductUid,
			OriginalPayoutId:   paid.PayoutId,
			OriginalPaidAmount: paid.CodReceived,
			SuggestedReversal:  paid.CodReceived,
			CurrentStatus:      o.Status,
			StatusAtPayout:     paid.StatusAtPayout,
			RtsRtoStatus:       rtsRtoLabel(o.Status),
		}

		switch {
		case paid.StatusAtPayout == StatusDelivered && !reconciled[key]:
			s.Confidence = "high"
			s.Rationale = fmt.Sprintf(
				"order %s was paid ₹%s as delivered on %s and is now %s; no reconciliation recorded since",
				o.OrderId, paid.CodReceived.String(), paid.PaidOn.Format("2006-01-02"), o.Status)
		case paid.StatusAtPayout == "" || paid.StatusAtPayout == StatusOther:
			s.Confidence = "medium"
			s.Rationale = fmt.Sprintf(
				"order %s was paid ₹%s but its status at payout was ambiguous (%q); now %s — verify before reversing",
				o.OrderId, paid.CodReceived.String(), string(paid.StatusAtPayout), o.Status)
		default:
			s.Confidence = "low"
			s.Rationale = fmt.Sprintf(
				"order %s was paid ₹%s with status %s at payout and is now %s; a reconciliation may already cover this",
				o.OrderId, paid.CodReceived.String(), paid.StatusAtPayout, o.Status)
		}

		suggestions = append(suggestions, s)
	}
	return suggestions
}

// AutoDetectReversals scans orders in the given order-date range whose status
// is now RTS/RTO/RTO-Dispatched and which have a prior payout recorded under a
// different status, and suggests reversals for operator review.
func AutoDetectReversals(ctx context.Context, orderDateFrom, orderDateTo time.Time, dropshipperEmail string) ([]*ReversalSuggestion, error) {
	orders, err := GetReturnedOrders(ctx, orderDateFrom, orderDateTo, dropshipperEmail)
	if err != nil {
		return nil, err
	}
	orderIds := make([]string, 0, len(orders))
	for _, o := range orders {
		orderIds = append(orderIds, o.OrderId)
	}
	orderIds = utils.UniqueSlice(orderIds)

	ledger, err := LoadPayoutLedgerByOrder(ctx, orderIds, dropshipperEmail)
	if err != nil {
		return nil, err
	}
	reconciled, err := reconciledOrderKeys(ctx, orderIds)
	if err != nil {
		return nil, err
	}

	return detectReversalSuggestions(orders, ledger, reconciled), nil
}

// reconciledOrderKeys returns the orderKey set of existing reconciliation
// records among the given order ids. Keys carry the dropshipper, so a record
// for A's "1001" never shadows B's "1001".
func reconciledOrderKeys(ctx context.Context, orderIds []string) (map[string]bool, error) {
	if len(orderIds) == 0 {
		return map[string]bool{}, nil
	}
	db := config.GetDB()
	var rows []struct {
		OrderId          string
		DropshipperEmail string
	}
	if err := db.WithContext(ctx).Model(&ReconciliationRecord{}).
		Select("order_id", "dropshipper_email").
		Where("order_id IN ?", orderIds).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[orderKey(row.DropshipperEmail, row.OrderId)] = true
	}
	return out, nil
}

// Reconcile validates and appends a reversal record. It never mutates payout
// history: the reversal is subtracted at summary-aggregation time.
//
// A second record for the same order is refused with ErrAlreadyReconciled
// unless the record carries Force, in which case the duplicate is appended
// with an audit note. Reconciling an order that was never paid out is allowed
// (permissive policy): the record is stored with a zero original amount and a
// flag in the notes.
func Reconcile(ctx context.Context, record *ReconciliationRecord) (*ReconciliationRecord, error) {
	record.DropshipperEmail = strings.ToLower(strings.TrimSpace(record.DropshipperEmail))
	record.OrderId = strings.TrimSpace(record.OrderId)

	if err := reconcileValidate.Struct(record); err != nil {
		return nil, err
	}

	existing, err := reconciledOrderKeys(ctx, []string{record.OrderId})
	if err != nil {
		return nil, err
	}
	if existing[orderKey(record.DropshipperEmail, record.OrderId)] {
		if !record.Force {
			return nil, ErrAlreadyReconciled
		}
		record.Notes = appendNote(record.Notes, "forced duplicate reversal: order already had a reconciliation record")
	}

	ledger, err := LoadPayoutLedgerByOrder(ctx, []string{record.OrderId}, record.DropshipperEmail)
	if err != nil {
		return nil, err
	}
	if paid, ok := ledger[orderKey(record.DropshipperEmail, record.OrderId)]; ok {
		record.OriginalPayoutId = paid.PayoutId
		record.OriginalPaidAmount = paid.CodReceived
		if record.ProductUid == "" {
			record.ProductUid = paid.ProductUid
		}
	} else {
		record.OriginalPaidAmount = decimal.Zero
		record.Notes = appendNote(record.Notes, "no prior payout found for this order; recorded with original paid amount 0")
	}

	record.Status = ReconciliationProcessed
	if record.ReconciledOn.IsZero() {
		record.ReconciledOn = time.Now().UTC()
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func appendNote(notes, extra string) string {
	if strings.TrimSpace(notes) == "" {
		return extra
	}
	return notes + " | " + extra
}

// PendingReconciliations lists returned orders that have no reconciliation
// record yet. Once an order is reconciled it drops out of this query, which
// is what tells callers the reversal is accounted for.
func PendingReconciliations(ctx context.Context, dropshipperEmail string) ([]*OrderRecord, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("status IN ?", []OrderStatus{StatusRTS, StatusRTO, StatusRTODispatched}).
		Where("NOT EXISTS (SELECT 1 FROM reconciliation_records rr" +
			" WHERE rr.order_id = order_records.order_id" +
			" AND rr.dropshipper_email = order_records.dropshipper_email)")
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var orders []*OrderRecord
	if err := dbCtx.Order("order_date, order_id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetProcessedReversals loads confirmed reversal records for the given orders,
// for summary-time adjustment.
func GetProcessedReversals(ctx context.Context, orderIds []string, dropshipperEmail string) ([]*ReconciliationRecord, error) {
	if len(orderIds) == 0 {
		return nil, nil
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("order_id IN ?", orderIds).
		Where("status = ?", ReconciliationProcessed)
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var records []*ReconciliationRecord
	if err := dbCtx.Order("reconciled_on, order_id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
