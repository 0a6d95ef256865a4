package reports

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/models"
)

func reportCacheEnabled() bool {
	v := strings.TrimSpace(os.Getenv("ENABLE_REPORT_CACHE"))
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") || strings.EqualFold(v, "on")
}

func reportCacheTTL() time.Duration {
	// Env: REPORT_CACHE_TTL_SECONDS (default 120s)
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// PayoutReportRequest carries the two independent windows plus the optional
// dropshipper filter ("" or "all" = everyone) and the declared charge policy.
type PayoutReportRequest struct {
	OrderWindow      models.DateWindow   `json:"orderWindow"`
	DeliveredWindow  models.DateWindow   `json:"deliveredWindow"`
	DropshipperEmail string              `json:"dropshipperEmail"`
	ChargePolicy     models.ChargePolicy `json:"chargePolicy"`
}

func (r *PayoutReportRequest) Validate() error {
	if r.OrderWindow.From.IsZero() || r.OrderWindow.To.IsZero() {
		return errors.New("order window from/to dates are required")
	}
	if r.DeliveredWindow.From.IsZero() || r.DeliveredWindow.To.IsZero() {
		return errors.New("delivered window from/to dates are required")
	}
	if !r.OrderWindow.IsValid() {
		return errors.New("order window end precedes its start")
	}
	if !r.DeliveredWindow.IsValid() {
		return errors.New("delivered window end precedes its start")
	}
	if r.ChargePolicy == "" {
		r.ChargePolicy = models.ChargeFlatPerOrder
	}
	return nil
}

// PayoutReportResult is the full shape the export layer consumes: rows,
// summary, and the confirmed reversal adjustments already folded into
// finalPayable.
type PayoutReportResult struct {
	Summary     *models.PayoutSummary          `json:"summary"`
	Rows        []*models.PayoutRow            `json:"rows"`
	Adjustments []*models.ReconciliationRecord `json:"adjustments"`
}

const payoutCachePrefix = "report:payout:"

func payoutCacheKey(req *PayoutReportRequest) string {
	return fmt.Sprintf("%s%s:%s:%s:%s:%s:%s", payoutCachePrefix,
		req.OrderWindow.From.Format("2006-01-02"), req.OrderWindow.To.Format("2006-01-02"),
		req.DeliveredWindow.From.Format("2006-01-02"), req.DeliveredWindow.To.Format("2006-01-02"),
		req.DropshipperEmail, req.ChargePolicy)
}

// InvalidatePayoutReportCache drops every cached payout report. A reversal
// changes finalPayable for any window pair containing the order, so targeted
// invalidation from one record is not possible.
func InvalidatePayoutReportCache() {
	_ = config.RemoveRedisKeysByPattern(payoutCachePrefix + "*")
}

// CalculatePayouts is the read path: the redis cache may answer, subject to
// REPORT_CACHE_TTL_SECONDS staleness. Data-completeness problems (missing
// prices, default-tier rates) surface as summary counts, never as errors.
func CalculatePayouts(ctx context.Context, req *PayoutReportRequest) (*PayoutReportResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cacheKey := payoutCacheKey(req)
	if reportCacheEnabled() {
		var cached PayoutReportResult
		if hit, err := cacheGet(cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	result, err := computePayouts(ctx, req)
	if err != nil {
		return nil, err
	}
	if reportCacheEnabled() {
		_ = cacheSet(cacheKey, result, reportCacheTTL())
	}
	return result, nil
}

// computePayouts always reads the live tables: it loads the order set for the
// window pair, snapshots the config tables, runs the calculator, and folds in
// confirmed reversals. The settlement export calls it directly; the durable
// audit rows must never be built from a cached report.
func computePayouts(ctx context.Context, req *PayoutReportRequest) (*PayoutReportResult, error) {
	orders, err := models.GetOrdersForWindows(ctx, req.OrderWindow, req.DeliveredWindow, req.DropshipperEmail)
	if err != nil {
		return nil, err
	}
	prices, err := models.LoadPriceMap(ctx, req.DropshipperEmail)
	if err != nil {
		return nil, err
	}
	resolver, err := models.LoadRateResolver(ctx)
	if err != nil {
		return nil, err
	}

	rows, summary := models.CalculatePayoutRows(
		orders, prices, resolver,
		req.OrderWindow, req.DeliveredWindow,
		req.ChargePolicy, req.DropshipperEmail,
	)

	orderIds := make([]string, 0, len(rows))
	for _, row := range rows {
		orderIds = append(orderIds, row.OrderId)
	}
	adjustments, err := models.GetProcessedReversals(ctx, orderIds, req.DropshipperEmail)
	if err != nil {
		return nil, err
	}
	summary.ApplyReversals(adjustments)

	return &PayoutReportResult{
		Summary:     summary,
		Rows:        rows,
		Adjustments: adjustments,
	}, nil
}
