package models

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmdropship/settlements_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// OrderStatus is the closed set every free-text carrier status is normalized
// into, exactly once, at the ingestion boundary. Downstream code must never
// re-derive status from the raw string.
type OrderStatus string

const (
	StatusDelivered     OrderStatus = "delivered"
	StatusRTS           OrderStatus = "rts"
	StatusRTO           OrderStatus = "rto"
	StatusRTODispatched OrderStatus = "rto_dispatched"
	StatusCancelled     OrderStatus = "cancelled"
	StatusOther         OrderStatus = "other"
)

type PaymentMode string

const (
	ModeCOD     PaymentMode = "cod"
	ModePrepaid PaymentMode = "prepaid"
)

// NormalizeStatus maps a free-text status to the canonical set with
// case-insensitive substring matching. "RTO Dispatched" must be checked
// before plain "RTO"; "cancel" catches both "Cancelled" and "Cancellation
// Requested".
func NormalizeStatus(raw string) OrderStatus {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusOther
	case strings.Contains(s, "rto-dispatched") || strings.Contains(s, "rto dispatched") || strings.Contains(s, "rto_dispatched"):
		return StatusRTODispatched
	case strings.Contains(s, "rts"):
		return StatusRTS
	case strings.Contains(s, "rto"):
		return StatusRTO
	case strings.Contains(s, "cancel"):
		return StatusCancelled
	case strings.Contains(s, "deliver"):
		return StatusDelivered
	default:
		return StatusOther
	}
}

// IsReturned reports whether the status is a terminal return
// (RTS / RTO / RTO-Dispatched).
func (s OrderStatus) IsReturned() bool {
	return s == StatusRTS || s == StatusRTO || s == StatusRTODispatched
}

// NormalizeMode maps free-text payment mode to {cod, prepaid}; anything that
// isn't recognizably COD is treated as prepaid, so unknown modes can never
// inflate COD totals.
func NormalizeMode(raw string) PaymentMode {
	if strings.Contains(strings.ToLower(raw), "cod") || strings.Contains(strings.ToLower(raw), "cash on delivery") {
		return ModeCOD
	}
	return ModePrepaid
}

// OrderRecord is immutable once ingested, except for status transitions
// (status + delivered date) applied by later uploads of the same order.
type OrderRecord struct {
	ID               int             `gorm:"primary_key" json:"id"`
	OrderId          string          `gorm:"size:100;not null;uniqueIndex:idx_order_key,priority:1;index" json:"orderId"`
	Waybill          *string         `gorm:"size:100" json:"waybill"`
	DropshipperEmail string          `gorm:"size:255;not null;uniqueIndex:idx_order_key,priority:2;index" json:"dropshipperEmail"`
	ProductUid       string          `gorm:"size:255;not null;index" json:"productUid"`
	ProductName      string          `gorm:"size:255" json:"productName"`
	Qty              int             `gorm:"not null" json:"qty"`
	ProductValue     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"productValue"`
	Mode             PaymentMode     `gorm:"type:enum('cod','prepaid');not null;default:'prepaid'" json:"mode"`
	StatusRaw        string          `gorm:"size:255" json:"statusRaw"`
	Status           OrderStatus     `gorm:"type:enum('delivered','rts','rto','rto_dispatched','cancelled','other');not null;default:'other';index" json:"status"`
	OrderDate        time.Time       `gorm:"not null;index" json:"orderDate"`
	DeliveredDate    *time.Time      `gorm:"index" json:"deliveredDate"`
	ShippingProvider string          `gorm:"size:100" json:"shippingProvider"`
	UploadSessionId  string          `gorm:"size:64;not null;index" json:"uploadSessionId"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// OrderImportRow is one already-normalized row handed over by the ingestion
// collaborator. Spreadsheet parsing and column mapping happen upstream.
type OrderImportRow struct {
	OrderId          string          `json:"orderId" binding:"required"`
	Waybill          *string         `json:"waybill"`
	DropshipperEmail string          `json:"dropshipperEmail" binding:"required,email"`
	ProductSku       string          `json:"productSku"`
	ProductName      string          `json:"productName"`
	Qty              int             `json:"qty" binding:"required,gt=0"`
	ProductValue     decimal.Decimal `json:"productValue"`
	Mode             string          `json:"mode"`
	Status           string          `json:"status"`
	OrderDate        time.Time       `json:"orderDate" binding:"required"`
	DeliveredDate    *time.Time      `json:"deliveredDate"`
	ShippingProvider string          `json:"shippingProvider"`
}

// ProductKey returns the stable product identity: the SKU when present,
// otherwise the product name.
func (r *OrderImportRow) ProductKey() string {
	if sku := strings.TrimSpace(r.ProductSku); sku != "" {
		return sku
	}
	return strings.TrimSpace(r.ProductName)
}

// orderKey scopes an order id to its dropshipper. Order ids are only unique
// per dropshipper; two dropshippers can legitimately share "1001".
func orderKey(dropshipperEmail, orderId string) string {
	return strings.ToLower(strings.TrimSpace(dropshipperEmail)) + "|" + strings.TrimSpace(orderId)
}

// ImportOrders stamps the batch with a fresh upload-session id, normalizes
// status and mode once, and upserts the rows. An order seen in an earlier
// upload keeps one row: the new upload applies the status transition (status,
// raw status, delivered date) and re-stamps the session, so re-uploading a
// sheet never duplicates money. Returns the session id and the number of rows
// processed.
func ImportOrders(ctx context.Context, rows []*OrderImportRow) (string, int, error) {
	db := config.GetDB()
	sessionId := uuid.NewString()

	records := make([]*OrderRecord, 0, len(rows))
	for _, row := range rows {
		status := NormalizeStatus(row.Status)
		deliveredDate := row.DeliveredDate
		if status != StatusDelivered && !status.IsReturned() {
			// A delivered date only means something once the parcel reached
			// the customer (returns keep it: it records the original delivery).
			deliveredDate = nil
		}
		records = append(records, &OrderRecord{
			OrderId:          strings.TrimSpace(row.OrderId),
			Waybill:          row.Waybill,
			DropshipperEmail: strings.ToLower(strings.TrimSpace(row.DropshipperEmail)),
			ProductUid:       row.ProductKey(),
			ProductName:      strings.TrimSpace(row.ProductName),
			Qty:              row.Qty,
			ProductValue:     row.ProductValue,
			Mode:             NormalizeMode(row.Mode),
			StatusRaw:        row.Status,
			Status:           status,
			OrderDate:        row.OrderDate,
			DeliveredDate:    deliveredDate,
			ShippingProvider: strings.TrimSpace(row.ShippingProvider),
			UploadSessionId:  sessionId,
		})
	}

	if len(records) == 0 {
		return sessionId, 0, nil
	}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_id"}, {Name: "dropshipper_email"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "status_raw", "delivered_date", "upload_session_id", "updated_at"}),
	}).CreateInBatches(records, 500).Error
	if err != nil {
		return "", 0, err
	}
	return sessionId, len(records), nil
}

// GetOrdersForWindows loads every order that can appear in a payout row for
// the given window pair: order date inside the order window, or delivered
// date inside the delivered window.
func GetOrdersForWindows(ctx context.Context, orderWindow, deliveredWindow DateWindow, dropshipperEmail string) ([]*OrderRecord, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("(order_date BETWEEN ? AND ?) OR (delivered_date BETWEEN ? AND ?)",
			orderWindow.From, orderWindow.To.Add(24*time.Hour-time.Nanosecond),
			deliveredWindow.From, deliveredWindow.To.Add(24*time.Hour-time.Nanosecond))
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var orders []*OrderRecord
	if err := dbCtx.Order("order_date, order_id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetReturnedOrders loads orders whose current status is RTS/RTO/RTO-Dispatched
// with order date inside the given range.
func GetReturnedOrders(ctx context.Context, from, to time.Time, dropshipperEmail string) ([]*OrderRecord, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("status IN ?", []OrderStatus{StatusRTS, StatusRTO, StatusRTODispatched}).
		Where("order_date BETWEEN ? AND ?", from, to.Add(24*time.Hour-time.Nanosecond))
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var orders []*OrderRecord
	if err := dbCtx.Order("order_date, order_id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
