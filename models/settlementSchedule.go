package models

import (
	"fmt"
	"time"

	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
)

// RunDescriptor is one scheduled settlement run: the run date plus the two
// independent windows the payout calculation uses for it. A degenerate run
// (window end before start, e.g. a cutoff offset larger than the interval
// between runs) is kept in the output with Skipped set, never dropped
// silently.
type RunDescriptor struct {
	RunDate         time.Time  `json:"runDate"`
	OrderWindow     DateWindow `json:"orderWindow"`
	DeliveredWindow DateWindow `json:"deliveredWindow"`
	Skipped         bool       `json:"skipped"`
	SkipReason      string     `json:"skipReason,omitempty"`
}

// GenerateRuns produces the settlement calendar for [rangeFrom, rangeTo].
//
// For each run date: the delivered window ends cutoffOffsetDays before the
// run date and the order window ends on the run date itself. Window starts
// chain: each run starts the day after the previous run's window end. The
// first run starts after the stored anchor when anchored, or at rangeFrom
// when not ("quick report" mode repartitions only the requested range). An
// anchored first run with no stored anchor starts at bootstrapStart (the
// earliest order known for the dropshipper).
func GenerateRuns(settings *SettlementSettings, anchors *SchedulerAnchors, rangeFrom, rangeTo time.Time, bootstrapStart time.Time) []RunDescriptor {
	rangeFrom = utils.DateOnly(rangeFrom)
	rangeTo = utils.DateOnly(rangeTo)
	if rangeTo.Before(rangeFrom) {
		return nil
	}

	var prevOrderEnd, prevDeliveredEnd *time.Time
	if settings.Anchored {
		if anchors != nil && anchors.LastPaymentDoneOn != nil {
			t := utils.DateOnly(*anchors.LastPaymentDoneOn)
			prevOrderEnd = &t
		}
		if anchors != nil && anchors.LastDeliveredCutoff != nil {
			t := utils.DateOnly(*anchors.LastDeliveredCutoff)
			prevDeliveredEnd = &t
		}
	}

	firstStart := func(prevEnd *time.Time) time.Time {
		if settings.Anchored {
			if prevEnd != nil {
				return prevEnd.AddDate(0, 0, 1)
			}
			return utils.DateOnly(bootstrapStart)
		}
		return rangeFrom
	}

	var runs []RunDescriptor
	for day := rangeFrom; !day.After(rangeTo); day = day.AddDate(0, 0, 1) {
		if !settings.Frequency.runsOn(day, settings.CustomWeekdays) {
			continue
		}

		orderStart := firstStart(prevOrderEnd)
		if prevOrderEnd != nil {
			orderStart = prevOrderEnd.AddDate(0, 0, 1)
		}
		orderEnd := day

		deliveredStart := firstStart(prevDeliveredEnd)
		if prevDeliveredEnd != nil {
			deliveredStart = prevDeliveredEnd.AddDate(0, 0, 1)
		}
		deliveredEnd := day.AddDate(0, 0, -settings.CutoffOffsetDays)

		run := RunDescriptor{
			RunDate:         day,
			OrderWindow:     DateWindow{From: orderStart, To: orderEnd},
			DeliveredWindow: DateWindow{From: deliveredStart, To: deliveredEnd},
		}

		switch {
		case !run.OrderWindow.IsValid():
			run.Skipped = true
			run.SkipReason = fmt.Sprintf("order window ends %s before it starts %s",
				orderEnd.Format("2006-01-02"), orderStart.Format("2006-01-02"))
		case !run.DeliveredWindow.IsValid():
			run.Skipped = true
			run.SkipReason = fmt.Sprintf("delivered window ends %s before it starts %s (cutoff offset %dd exceeds the run interval)",
				deliveredEnd.Format("2006-01-02"), deliveredStart.Format("2006-01-02"), settings.CutoffOffsetDays)
		}

		// Skipped runs do not advance the chain; the next run covers the gap.
		if !run.Skipped {
			oe, de := orderEnd, deliveredEnd
			prevOrderEnd, prevDeliveredEnd = &oe, &de
		}

		runs = append(runs, run)
	}
	return runs
}

// SettlementRun is the durable audit record of an exported run, distinct from
// the live payout summary which is recomputed per request.
type SettlementRun struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	RunDate             time.Time       `gorm:"not null;index" json:"runDate"`
	DropshipperEmail    string          `gorm:"size:255;not null;index" json:"dropshipperEmail"`
	OrderWindowFrom     time.Time       `gorm:"not null" json:"orderWindowFrom"`
	OrderWindowTo       time.Time       `gorm:"not null" json:"orderWindowTo"`
	DeliveredWindowFrom time.Time       `gorm:"not null" json:"deliveredWindowFrom"`
	DeliveredWindowTo   time.Time       `gorm:"not null" json:"deliveredWindowTo"`
	ChargePolicy        ChargePolicy    `gorm:"size:32;not null" json:"chargePolicy"`
	TotalOrders         int             `gorm:"not null" json:"totalOrders"`
	TotalShippingCost   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalShippingCost"`
	TotalProductCost    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalProductCost"`
	TotalCodReceived    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalCodReceived"`
	TotalReversals      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"totalReversals"`
	FinalPayable        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"finalPayable"`
	ExportedBy          string          `gorm:"size:255" json:"exportedBy"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}
