package reports

import (
	"fmt"
	"io"
	"net/http"

	"github.com/xuri/excelize/v2"
)

const payoutSheetName = "Payouts"

// payoutSheetHeadings is the fixed sheet layout the report contract requires.
// Every field here must be populated for every row; omitting one is a
// contract violation with the consuming dashboard.
var payoutSheetHeadings = []string{
	"Order ID",
	"Waybill",
	"Dropshipper",
	"Product UID",
	"Product Name",
	"Qty",
	"Mode",
	"Status",
	"Order Date",
	"Delivered Date",
	"Weight (kg)",
	"Shipping Provider",
	"Rate",
	"Rate Source",
	"Shipping Cost",
	"Product Cost",
	"COD Received",
	"Payable",
}

// WritePayoutWorkbook renders the payout result as an xlsx workbook. Zero
// amounts are written as "0", never blanked: a computed zero is a reportable
// value that feeds the totals.
func WritePayoutWorkbook(w io.Writer, result *PayoutReportResult) error {
	f := excelize.NewFile()
	idx, err := f.NewSheet(payoutSheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, h := range payoutSheetHeadings {
		cell, cerr := excelize.CoordinatesToCellName(i+1, 1)
		if cerr != nil {
			return cerr
		}
		f.SetCellValue(payoutSheetName, cell, h)
	}

	rowNo := 2
	for _, r := range result.Rows {
		delivered := ""
		if r.DeliveredDate != nil {
			delivered = r.DeliveredDate.Format("2006-01-02")
		}
		values := []interface{}{
			r.OrderId,
			r.Waybill,
			r.DropshipperEmail,
			r.ProductUid,
			r.ProductName,
			r.Qty,
			string(r.Mode),
			string(r.Status),
			r.OrderDate.Format("2006-01-02"),
			delivered,
			r.ProductWeight.String(),
			r.ShippingProvider,
			r.Rate.String(),
			string(r.RateSource),
			r.ShippingCost.String(),
			r.ProductCost.String(),
			r.CodReceived.String(),
			r.Payable.String(),
		}
		for i, v := range values {
			cell, cerr := excelize.CoordinatesToCellName(i+1, rowNo)
			if cerr != nil {
				return cerr
			}
			f.SetCellValue(payoutSheetName, cell, v)
		}
		rowNo++
	}

	// Summary block below the rows.
	s := result.Summary
	summaryLines := [][2]string{
		{"Total Orders", fmt.Sprint(s.TotalOrders)},
		{"Orders With Shipping Charges", fmt.Sprint(s.OrdersWithShippingCharges)},
		{"Orders With Product Amount", fmt.Sprint(s.OrdersWithProductAmount)},
		{"Orders With COD Amount", fmt.Sprint(s.OrdersWithCodAmount)},
		{"Total Shipping Cost", s.TotalShippingCost.String()},
		{"Total Product Cost", s.TotalProductCost.String()},
		{"Total COD Received", s.TotalCodReceived.String()},
		{"Total Payable", s.TotalPayable.String()},
		{"Total Reversals", s.TotalReversals.String()},
		{"Final Payable", s.FinalPayable.String()},
	}
	rowNo++
	for _, line := range summaryLines {
		f.SetCellValue(payoutSheetName, fmt.Sprintf("A%d", rowNo), line[0])
		f.SetCellValue(payoutSheetName, fmt.Sprintf("B%d", rowNo), line[1])
		rowNo++
	}

	return f.Write(w)
}

// ServePayoutWorkbook streams the workbook as an attachment.
func ServePayoutWorkbook(w http.ResponseWriter, result *PayoutReportResult, filename string) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if err := WritePayoutWorkbook(w, result); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
	}
}
