package reports

import (
	"bytes"
	"testing"

	"github.com/mmdropship/settlements_backend/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func sampleResult() *PayoutReportResult {
	delivered := dayUTC(2025, 7, 10)
	return &PayoutReportResult{
		Summary: &models.PayoutSummary{
			TotalOrders:       1,
			TotalShippingCost: decimal.NewFromInt(25),
			TotalProductCost:  decimal.NewFromInt(150),
			TotalCodReceived:  decimal.NewFromInt(500),
			TotalPayable:      decimal.NewFromInt(325),
			TotalReversals:    decimal.Zero,
			FinalPayable:      decimal.NewFromInt(325),
		},
		Rows: []*models.PayoutRow{
			{
				OrderId:          "ORD-1",
				Waybill:          "WB-1",
				DropshipperEmail: "seller@example.com",
				ProductUid:       "SKU-1",
				ProductName:      "Blue Mug",
				Qty:              1,
				Mode:             models.ModeCOD,
				Status:           models.StatusDelivered,
				OrderDate:        dayUTC(2025, 7, 5),
				DeliveredDate:    &delivered,
				ProductWeight:    decimal.NewFromFloat(0.5),
				ShippingProvider: "delhivery",
				Rate:             decimal.NewFromInt(25),
				RateSource:       models.RateSourceExact,
				ShippingCost:     decimal.NewFromInt(25),
				ProductCost:      decimal.NewFromInt(150),
				CodReceived:      decimal.NewFromInt(500),
				Payable:          decimal.NewFromInt(325),
			},
		},
	}
}

func TestWritePayoutWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePayoutWorkbook(&buf, sampleResult()); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(payoutSheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) < 2 {
		t.Fatalf("got %d rows, want header plus data", len(rows))
	}

	// Header layout is a contract with the consuming dashboard.
	header := rows[0]
	if len(header) != len(payoutSheetHeadings) {
		t.Fatalf("got %d header columns, want %d", len(header), len(payoutSheetHeadings))
	}
	for i, want := range payoutSheetHeadings {
		if header[i] != want {
			t.Fatalf("header column %d = %q, want %q", i, header[i], want)
		}
	}

	data := rows[1]
	if data[0] != "ORD-1" {
		t.Fatalf("order id cell = %q, want ORD-1", data[0])
	}
	if data[8] != "2025-07-05" || data[9] != "2025-07-10" {
		t.Fatalf("date cells = %q/%q, want 2025-07-05/2025-07-10", data[8], data[9])
	}
	if data[17] != "325" {
		t.Fatalf("payable cell = %q, want 325", data[17])
	}

	// Summary block follows the data rows.
	foundFinal := false
	for _, row := range rows[2:] {
		if len(row) >= 2 && row[0] == "Final Payable" {
			foundFinal = true
			if row[1] != "325" {
				t.Fatalf("final payable = %q, want 325", row[1])
			}
		}
	}
	if !foundFinal {
		t.Fatalf("summary block missing the Final Payable line")
	}
}

func TestWritePayoutWorkbookZeroAmountsNotBlanked(t *testing.T) {
	result := sampleResult()
	result.Rows[0].ShippingCost = decimal.Zero
	result.Rows[0].CodReceived = decimal.Zero

	var buf bytes.Buffer
	if err := WritePayoutWorkbook(&buf, result); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(payoutSheetName)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	data := rows[1]
	if data[14] != "0" || data[16] != "0" {
		t.Fatalf("zero amounts must be written as 0, got shipping %q cod %q", data[14], data[16])
	}
}
