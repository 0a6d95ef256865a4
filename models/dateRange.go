package models

import (
	"context"
	"time"

	"github.com/mmdropship/settlements_backend/config"
)

// EarliestOrderDate is the scheduler's anchor bootstrap: the first order ever
// seen for a dropshipper ("" or "all" = across everyone). Returns false when
// no orders exist.
func EarliestOrderDate(ctx context.Context, dropshipperEmail string) (time.Time, bool, error) {
	return orderDateBound(ctx, dropshipperEmail, "MIN(order_date)")
}

// LatestDeliveredDate returns the most recent delivered date on file.
func LatestDeliveredDate(ctx context.Context, dropshipperEmail string) (time.Time, bool, error) {
	return orderDateBound(ctx, dropshipperEmail, "MAX(delivered_date)")
}

func orderDateBound(ctx context.Context, dropshipperEmail string, expr string) (time.Time, bool, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&OrderRecord{}).Select(expr)
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}

	var bound *time.Time
	if err := dbCtx.Scan(&bound).Error; err != nil {
		return time.Time{}, false, err
	}
	if bound == nil {
		return time.Time{}, false, nil
	}
	return *bound, true, nil
}
