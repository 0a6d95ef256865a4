package reports

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/utils"
	"gorm.io/gorm"
)

// SettlementRunRequest drives run generation over a date range. Settings
// fields override the dropshipper's stored defaults when set.
type SettlementRunRequest struct {
	DropshipperEmail string              `json:"dropshipperEmail"`
	Frequency        models.Frequency    `json:"frequency"`
	CutoffOffsetDays int                 `json:"cutoffOffsetDays"`
	Anchored         bool                `json:"anchored"`
	CustomWeekdays   []time.Weekday      `json:"customWeekdays"`
	RangeFrom        time.Time           `json:"rangeFrom"`
	RangeTo          time.Time           `json:"rangeTo"`
	ChargePolicy     models.ChargePolicy `json:"chargePolicy"`
}

func (r *SettlementRunRequest) Validate() error {
	if r.RangeFrom.IsZero() || r.RangeTo.IsZero() {
		return errors.New("range from/to dates are required")
	}
	if r.RangeTo.Before(r.RangeFrom) {
		return errors.New("range end precedes its start")
	}
	if r.Frequency == "" {
		return errors.New("frequency is required")
	}
	if r.Frequency == models.FrequencyCustom && len(r.CustomWeekdays) == 0 {
		return errors.New("custom frequency requires at least one weekday")
	}
	if r.CutoffOffsetDays < 0 {
		return errors.New("cutoff offset must not be negative")
	}
	if r.ChargePolicy == "" {
		r.ChargePolicy = models.ChargeFlatPerOrder
	}
	return nil
}

func (r *SettlementRunRequest) settings() *models.SettlementSettings {
	return &models.SettlementSettings{
		DropshipperEmail: r.DropshipperEmail,
		Frequency:        r.Frequency,
		CutoffOffsetDays: r.CutoffOffsetDays,
		Anchored:         r.Anchored,
		CustomWeekdays:   r.CustomWeekdays,
	}
}

// RunReport pairs a scheduled run with the payout computed for its windows.
// Skipped runs carry no payout.
type RunReport struct {
	Run    models.RunDescriptor `json:"run"`
	Payout *PayoutReportResult  `json:"payout,omitempty"`
}

// GenerateSettlementRuns produces the run calendar for the request range and
// computes the payout shape for every viable run. The current anchors are
// read, passed into the pure generator, and NOT advanced — only an export
// moves them.
func GenerateSettlementRuns(ctx context.Context, req *SettlementRunRequest) ([]*RunReport, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	anchors, err := models.GetSchedulerAnchors(ctx, req.DropshipperEmail)
	if err != nil {
		return nil, err
	}
	bootstrap, err := bootstrapStart(ctx, req)
	if err != nil {
		return nil, err
	}

	runs := models.GenerateRuns(req.settings(), anchors, req.RangeFrom, req.RangeTo, bootstrap)

	out := make([]*RunReport, 0, len(runs))
	for _, run := range runs {
		report := &RunReport{Run: run}
		if !run.Skipped {
			payout, perr := CalculatePayouts(ctx, &PayoutReportRequest{
				OrderWindow:      run.OrderWindow,
				DeliveredWindow:  run.DeliveredWindow,
				DropshipperEmail: req.DropshipperEmail,
				ChargePolicy:     req.ChargePolicy,
			})
			if perr != nil {
				return nil, perr
			}
			report.Payout = payout
		}
		out = append(out, report)
	}
	return out, nil
}

// bootstrapStart resolves the first anchored window start when no anchor
// exists yet: the earliest order on file for the dropshipper, else the range
// start.
func bootstrapStart(ctx context.Context, req *SettlementRunRequest) (time.Time, error) {
	earliest, ok, err := models.EarliestOrderDate(ctx, req.DropshipperEmail)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return req.RangeFrom, nil
	}
	return earliest, nil
}

// ExportSettlementRequest exports one generated run: persists the durable
// SettlementRun audit row and the payout ledger, then advances the anchors.
type ExportSettlementRequest struct {
	SettlementRunRequest
	RunDate time.Time `json:"runDate"`
	// ReconciledBy-style audit tag for the export actor.
	ExportedBy string `json:"exportedBy"`
}

var ErrRunNotFound = errors.New("no viable run on the requested date")

// ExportSettlementRun is the single mutation path for anchor state. The
// settlement run, the payout ledger entries, and the anchor advance commit in
// one transaction; on any failure (including a concurrent anchor advance)
// nothing moves. A redis lock serializes concurrent exports best-effort — the
// optimistic anchor version check in the DB is the authority.
func ExportSettlementRun(ctx context.Context, req *ExportSettlementRequest) (*models.SettlementRun, *PayoutReportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if req.RunDate.IsZero() {
		return nil, nil, errors.New("run date is required")
	}

	if locker := config.GetRedisLock(); locker != nil {
		lock, lerr := locker.Obtain(ctx, "settlement:export:"+req.DropshipperEmail, 30*time.Second, nil)
		if lerr == nil {
			defer lock.Release(ctx)
		} else if !errors.Is(lerr, redislock.ErrNotObtained) {
			return nil, nil, lerr
		}
		// Lock not obtained: proceed anyway, the version check below decides.
	}

	anchors, err := models.GetSchedulerAnchors(ctx, req.DropshipperEmail)
	if err != nil {
		return nil, nil, err
	}
	bootstrap, err := bootstrapStart(ctx, &req.SettlementRunRequest)
	if err != nil {
		return nil, nil, err
	}

	runs := models.GenerateRuns(req.settings(), anchors, req.RangeFrom, req.RangeTo, bootstrap)
	var target *models.RunDescriptor
	for i := range runs {
		if runs[i].RunDate.Equal(utils.DateOnly(req.RunDate)) && !runs[i].Skipped {
			target = &runs[i]
			break
		}
	}
	if target == nil {
		return nil, nil, ErrRunNotFound
	}

	payoutReq := &PayoutReportRequest{
		OrderWindow:      target.OrderWindow,
		DeliveredWindow:  target.DeliveredWindow,
		DropshipperEmail: req.DropshipperEmail,
		ChargePolicy:     req.ChargePolicy,
	}
	// The audit of record must be built from live data, never from a cached
	// report that may trail by the cache TTL.
	payout, err := computePayouts(ctx, payoutReq)
	if err != nil {
		return nil, nil, err
	}

	run := &models.SettlementRun{
		RunDate:             target.RunDate,
		DropshipperEmail:    req.DropshipperEmail,
		OrderWindowFrom:     target.OrderWindow.From,
		OrderWindowTo:       target.OrderWindow.To,
		DeliveredWindowFrom: target.DeliveredWindow.From,
		DeliveredWindowTo:   target.DeliveredWindow.To,
		ChargePolicy:        req.ChargePolicy,
		TotalOrders:         payout.Summary.TotalOrders,
		TotalShippingCost:   payout.Summary.TotalShippingCost,
		TotalProductCost:    payout.Summary.TotalProductCost,
		TotalCodReceived:    payout.Summary.TotalCodReceived,
		TotalReversals:      payout.Summary.TotalReversals,
		FinalPayable:        payout.Summary.FinalPayable,
		ExportedBy:          req.ExportedBy,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if terr := tx.Create(run).Error; terr != nil {
			return terr
		}

		entries := make([]*models.PayoutLedgerEntry, 0, len(payout.Rows))
		for _, row := range payout.Rows {
			entries = append(entries, &models.PayoutLedgerEntry{
				PayoutId:         uuid.NewString(),
				SettlementRunId:  run.ID,
				OrderId:          row.OrderId,
				DropshipperEmail: row.DropshipperEmail,
				ProductUid:       row.ProductUid,
				CodReceived:      row.CodReceived,
				Payable:          row.Payable,
				StatusAtPayout:   row.Status,
				PaidOn:           target.RunDate,
			})
		}
		if terr := models.CreatePayoutLedgerEntries(tx, ctx, entries); terr != nil {
			return terr
		}

		// Anchors advance to this run's window ends, atomically with the
		// export. A failed or conflicting export never moves them.
		return models.AdvanceSchedulerAnchors(tx, ctx, anchors, target.OrderWindow.To, target.DeliveredWindow.To)
	})
	if err != nil {
		return nil, nil, err
	}

	cacheDrop(payoutCacheKey(payoutReq))
	return run, payout, nil
}

// ListSettlementRuns returns the durable audit log, newest first.
func ListSettlementRuns(ctx context.Context, dropshipperEmail string) ([]*models.SettlementRun, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}
	var runs []*models.SettlementRun
	if err := dbCtx.Order("run_date DESC, id DESC").Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
