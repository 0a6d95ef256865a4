package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/models/reports"
)

type autoDetectRequest struct {
	OrderDateFrom    string `json:"orderDateFrom" binding:"required"`
	OrderDateTo      string `json:"orderDateTo" binding:"required"`
	DropshipperEmail string `json:"dropshipperEmail"`
}

func autoDetectReversalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req autoDetectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		from, err := parseDate(req.OrderDateFrom)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		to, err := parseDate(req.OrderDateTo)
		if err != nil {
			badRequest(c, err.Error())
			return
		}

		suggestions, err := models.AutoDetectReversals(c.Request.Context(), from, to, req.DropshipperEmail)
		if err != nil {
			abortWithError(c, "reconciliationHandlers.go", "autoDetectReversalsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	}
}

func reconcileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var record models.ReconciliationRecord
		if err := c.ShouldBindJSON(&record); err != nil {
			badRequest(c, err.Error())
			return
		}

		created, err := models.Reconcile(c.Request.Context(), &record)
		if err != nil {
			abortWithError(c, "reconciliationHandlers.go", "reconcileHandler", err)
			return
		}

		// A confirmed reversal changes finalPayable in any cached report
		// covering the order.
		reports.InvalidatePayoutReportCache()
		c.JSON(http.StatusCreated, created)
	}
}

func pendingReconciliationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := models.PendingReconciliations(c.Request.Context(), c.Query("dropshipperEmail"))
		if err != nil {
			abortWithError(c, "reconciliationHandlers.go", "pendingReconciliationsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pending": orders})
	}
}
