package reports

import (
	"strings"
	"testing"
	"time"

	"github.com/mmdropship/settlements_backend/models"
)

func dayUTC(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestPayoutReportRequestValidate(t *testing.T) {
	valid := func() *PayoutReportRequest {
		return &PayoutReportRequest{
			OrderWindow:     models.DateWindow{From: dayUTC(2025, 7, 1), To: dayUTC(2025, 7, 15)},
			DeliveredWindow: models.DateWindow{From: dayUTC(2025, 7, 1), To: dayUTC(2025, 7, 13)},
		}
	}

	req := valid()
	if err := req.Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if req.ChargePolicy != models.ChargeFlatPerOrder {
		t.Fatalf("empty charge policy should default to flat, got %q", req.ChargePolicy)
	}

	req = valid()
	req.OrderWindow.To = time.Time{}
	if err := req.Validate(); err == nil {
		t.Fatalf("missing order window end should be rejected")
	}

	req = valid()
	req.DeliveredWindow.From, req.DeliveredWindow.To = req.DeliveredWindow.To, req.DeliveredWindow.From
	if err := req.Validate(); err == nil {
		t.Fatalf("inverted delivered window should be rejected")
	}
}

func TestPayoutCacheKeyDistinguishesRequests(t *testing.T) {
	a := &PayoutReportRequest{
		OrderWindow:      models.DateWindow{From: dayUTC(2025, 7, 1), To: dayUTC(2025, 7, 15)},
		DeliveredWindow:  models.DateWindow{From: dayUTC(2025, 7, 1), To: dayUTC(2025, 7, 13)},
		DropshipperEmail: "seller@example.com",
		ChargePolicy:     models.ChargeFlatPerOrder,
	}
	b := *a
	b.ChargePolicy = models.ChargePerKg

	if payoutCacheKey(a) == payoutCacheKey(&b) {
		t.Fatalf("cache key must include the charge policy")
	}
	if payoutCacheKey(a) != payoutCacheKey(a) {
		t.Fatalf("cache key must be stable for identical requests")
	}

	// Every cache key must sit under the shared prefix, or the pattern-based
	// invalidation after a reconciliation misses it.
	if !strings.HasPrefix(payoutCacheKey(a), payoutCachePrefix) {
		t.Fatalf("cache key %q lacks the %q prefix", payoutCacheKey(a), payoutCachePrefix)
	}
}

func TestReportCacheGating(t *testing.T) {
	cases := []struct {
		env  string
		want bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"YES", true},
	}
	for _, c := range cases {
		t.Setenv("ENABLE_REPORT_CACHE", c.env)
		if got := reportCacheEnabled(); got != c.want {
			t.Fatalf("ENABLE_REPORT_CACHE=%q: enabled=%v, want %v", c.env, got, c.want)
		}
	}

	t.Setenv("REPORT_CACHE_TTL_SECONDS", "45")
	if got := reportCacheTTL(); got != 45*time.Second {
		t.Fatalf("ttl = %v, want 45s", got)
	}
	t.Setenv("REPORT_CACHE_TTL_SECONDS", "not-a-number")
	if got := reportCacheTTL(); got != 120*time.Second {
		t.Fatalf("ttl = %v, want the 120s default", got)
	}
}

func TestSettlementRunRequestValidate(t *testing.T) {
	valid := func() *SettlementRunRequest {
		return &SettlementRunRequest{
			Frequency: models.FrequencyTwiceWeekly,
			RangeFrom: dayUTC(2025, 7, 1),
			RangeTo:   dayUTC(2025, 7, 31),
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	req := valid()
	req.Frequency = models.FrequencyCustom
	if err := req.Validate(); err == nil {
		t.Fatalf("custom frequency without weekdays should be rejected")
	}
	req.CustomWeekdays = []time.Weekday{time.Monday}
	if err := req.Validate(); err != nil {
		t.Fatalf("custom frequency with weekdays rejected: %v", err)
	}

	req = valid()
	req.CutoffOffsetDays = -1
	if err := req.Validate(); err == nil {
		t.Fatalf("negative cutoff should be rejected")
	}

	req = valid()
	req.RangeFrom, req.RangeTo = req.RangeTo, req.RangeFrom
	if err := req.Validate(); err == nil {
		t.Fatalf("inverted range should be rejected")
	}
}
