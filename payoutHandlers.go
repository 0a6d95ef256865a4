package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/models/reports"
)

type payoutRequest struct {
	OrderDateFrom     string `json:"orderDateFrom" form:"orderDateFrom" binding:"required"`
	OrderDateTo       string `json:"orderDateTo" form:"orderDateTo" binding:"required"`
	DeliveredDateFrom string `json:"deliveredDateFrom" form:"deliveredDateFrom" binding:"required"`
	DeliveredDateTo   string `json:"deliveredDateTo" form:"deliveredDateTo" binding:"required"`
	DropshipperEmail  string `json:"dropshipperEmail" form:"dropshipperEmail"`
	ChargePolicy      string `json:"chargePolicy" form:"chargePolicy"`
}

func (req *payoutRequest) toReportRequest() (*reports.PayoutReportRequest, error) {
	orderFrom, err := parseDate(req.OrderDateFrom)
	if err != nil {
		return nil, err
	}
	orderTo, err := parseDate(req.OrderDateTo)
	if err != nil {
		return nil, err
	}
	deliveredFrom, err := parseDate(req.DeliveredDateFrom)
	if err != nil {
		return nil, err
	}
	deliveredTo, err := parseDate(req.DeliveredDateTo)
	if err != nil {
		return nil, err
	}
	policy, err := models.ParseChargePolicy(req.ChargePolicy)
	if err != nil {
		return nil, err
	}
	return &reports.PayoutReportRequest{
		OrderWindow:      models.DateWindow{From: orderFrom, To: orderTo},
		DeliveredWindow:  models.DateWindow{From: deliveredFrom, To: deliveredTo},
		DropshipperEmail: req.DropshipperEmail,
		ChargePolicy:     policy,
	}, nil
}

func calculatePayoutsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		reportReq, err := req.toReportRequest()
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "payouts.calculate")
		defer span.End()

		result, err := reports.CalculatePayouts(ctx, reportReq)
		if err != nil {
			abortWithError(c, "payoutHandlers.go", "calculatePayoutsHandler", err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// exportPayoutsHandler serves the same calculation as an xlsx attachment.
func exportPayoutsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payoutRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		reportReq, err := req.toReportRequest()
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		result, err := reports.CalculatePayouts(c.Request.Context(), reportReq)
		if err != nil {
			abortWithError(c, "payoutHandlers.go", "exportPayoutsHandler", err)
			return
		}

		filename := "payouts-" + time.Now().UTC().Format("20060102-150405") + ".xlsx"
		reports.ServePayoutWorkbook(c.Writer, result, filename)
	}
}
