package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/models/reports"
)

type settlementRunsRequest struct {
	DropshipperEmail string `json:"dropshipperEmail"`
	Frequency        string `json:"frequency" binding:"required"`
	CutoffOffsetDays int    `json:"cutoffOffsetDays"`
	Anchored         *bool  `json:"anchored"`
	CustomWeekdays   []int  `json:"customWeekdays"`
	RangeFrom        string `json:"rangeFrom" binding:"required"`
	RangeTo          string `json:"rangeTo" binding:"required"`
	ChargePolicy     string `json:"chargePolicy"`
	RunDate          string `json:"runDate"`
	ExportedBy       string `json:"exportedBy"`
}

func (req *settlementRunsRequest) toRunRequest() (*reports.SettlementRunRequest, error) {
	frequency, err := models.ParseFrequency(req.Frequency)
	if err != nil {
		return nil, err
	}
	policy, err := models.ParseChargePolicy(req.ChargePolicy)
	if err != nil {
		return nil, err
	}
	rangeFrom, err := parseDate(req.RangeFrom)
	if err != nil {
		return nil, err
	}
	rangeTo, err := parseDate(req.RangeTo)
	if err != nil {
		return nil, err
	}

	anchored := true
	if req.Anchored != nil {
		anchored = *req.Anchored
	}
	weekdays := make([]time.Weekday, 0, len(req.CustomWeekdays))
	for _, wd := range req.CustomWeekdays {
		weekdays = append(weekdays, time.Weekday(wd%7))
	}

	return &reports.SettlementRunRequest{
		DropshipperEmail: req.DropshipperEmail,
		Frequency:        frequency,
		CutoffOffsetDays: req.CutoffOffsetDays,
		Anchored:         anchored,
		CustomWeekdays:   weekdays,
		RangeFrom:        rangeFrom,
		RangeTo:          rangeTo,
		ChargePolicy:     policy,
	}, nil
}

func generateSettlementRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settlementRunsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		runReq, err := req.toRunRequest()
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		runs, err := reports.GenerateSettlementRuns(c.Request.Context(), runReq)
		if err != nil {
			abortWithError(c, "settlementHandlers.go", "generateSettlementRunsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func exportSettlementRunHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settlementRunsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if req.RunDate == "" {
			badRequest(c, "runDate is required")
			return
		}
		runReq, err := req.toRunRequest()
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		runDate, err := parseDate(req.RunDate)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx, span := tracer.Start(c.Request.Context(), "settlements.export")
		defer span.End()

		run, payout, err := reports.ExportSettlementRun(ctx, &reports.ExportSettlementRequest{
			SettlementRunRequest: *runReq,
			RunDate:              runDate,
			ExportedBy:           req.ExportedBy,
		})
		if err != nil {
			abortWithError(c, "settlementHandlers.go", "exportSettlementRunHandler", err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"run": run, "payout": payout})
	}
}

func listSettlementRunsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		runs, err := reports.ListSettlementRuns(c.Request.Context(), c.Query("dropshipperEmail"))
		if err != nil {
			abortWithError(c, "settlementHandlers.go", "listSettlementRunsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs})
	}
}

func getSettlementSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := models.GetSettlementSettings(c.Request.Context(), c.Query("dropshipperEmail"))
		if err != nil {
			abortWithError(c, "settlementHandlers.go", "getSettlementSettingsHandler", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

func saveSettlementSettingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DropshipperEmail string `json:"dropshipperEmail"`
			Frequency        string `json:"frequency" binding:"required"`
			CutoffOffsetDays int    `json:"cutoffOffsetDays" binding:"gte=0"`
			Anchored         bool   `json:"anchored"`
			CustomWeekdays   []int  `json:"customWeekdays"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		frequency, err := models.ParseFrequency(req.Frequency)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		weekdays := make([]time.Weekday, 0, len(req.CustomWeekdays))
		for _, wd := range req.CustomWeekdays {
			weekdays = append(weekdays, time.Weekday(wd%7))
		}

		settings := &models.SettlementSettings{
			DropshipperEmail: req.DropshipperEmail,
			Frequency:        frequency,
			CutoffOffsetDays: req.CutoffOffsetDays,
			Anchored:         req.Anchored,
			CustomWeekdays:   weekdays,
		}
		if err := models.SaveSettlementSettings(c.Request.Context(), settings); err != nil {
			abortWithError(c, "settlementHandlers.go", "saveSettlementSettingsHandler", err)
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}
