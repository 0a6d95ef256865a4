package models

import (
	"context"
	"time"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutLedgerEntry is the durable record that an order was actually paid out
// in a settlement run, with the order's status frozen at payment time.
// Append-only: reversals are separate reconciliation records, never edits.
type PayoutLedgerEntry struct {
	ID               int             `gorm:"primary_key" json:"id"`
	PayoutId         string          `gorm:"size:64;not null;uniqueIndex" json:"payoutId"`
	SettlementRunId  int             `gorm:"not null;index" json:"settlementRunId"`
	OrderId          string          `gorm:"size:100;not null;index" json:"orderId"`
	DropshipperEmail string          `gorm:"size:255;not null;index" json:"dropshipperEmail"`
	ProductUid       string          `gorm:"size:255;not null" json:"productUid"`
	CodReceived      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"codReceived"`
	Payable          decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"payable"`
	StatusAtPayout   OrderStatus     `gorm:"size:32;not null" json:"statusAtPayout"`
	PaidOn           time.Time       `gorm:"not null;index" json:"paidOn"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

// CreatePayoutLedgerEntries appends ledger rows inside the caller's
// transaction, so the ledger and the settlement run commit or fail together.
func CreatePayoutLedgerEntries(tx *gorm.DB, ctx context.Context, entries []*PayoutLedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(entries, 500).Error
}

// LoadPayoutLedgerByOrder indexes the latest ledger entry per
// (dropshipper, order id) pair; a shared order id never aliases another
// dropshipper's payment. When an order was paid in more than one run the most
// recent payment wins, since that is the amount a reversal would need to claw
// back.
func LoadPayoutLedgerByOrder(ctx context.Context, orderIds []string, dropshipperEmail string) (map[string]*PayoutLedgerEntry, error) {
	if len(orderIds) == 0 {
		return map[string]*PayoutLedgerEntry{}, nil
	}
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("order_id IN ?", orderIds)
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var entries []*PayoutLedgerEntry
	if err := dbCtx.Order("paid_on").Find(&entries).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[string]*PayoutLedgerEntry, len(entries))
	for _, e := range entries {
		byOrder[orderKey(e.DropshipperEmail, e.OrderId)] = e
	}
	return byOrder, nil
}
