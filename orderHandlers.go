package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/models"
)

type importOrdersRequest struct {
	Orders []*models.OrderImportRow `json:"orders" binding:"required,min=1,dive"`
}

// importOrdersHandler is the ingestion boundary: rows arrive already parsed
// by the upload collaborator; this stamps the batch with an upload-session id
// and normalizes statuses exactly once.
func importOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req importOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		sessionId, imported, err := models.ImportOrders(c.Request.Context(), req.Orders)
		if err != nil {
			abortWithError(c, "orderHandlers.go", "importOrdersHandler", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"uploadSessionId": sessionId,
			"imported":        imported,
		})
	}
}

// orderDateBoundsHandler feeds the dashboard's date pickers: the earliest
// order on file and the latest delivered date, per dropshipper.
func orderDateBoundsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		email := c.Query("dropshipperEmail")

		earliest, hasOrders, err := models.EarliestOrderDate(ctx, email)
		if err != nil {
			abortWithError(c, "orderHandlers.go", "orderDateBoundsHandler", err)
			return
		}
		latest, hasDelivered, err := models.LatestDeliveredDate(ctx, email)
		if err != nil {
			abortWithError(c, "orderHandlers.go", "orderDateBoundsHandler", err)
			return
		}

		resp := gin.H{"hasOrders": hasOrders}
		if hasOrders {
			resp["earliestOrderDate"] = earliest.Format(dateLayout)
		}
		if hasDelivered {
			resp["latestDeliveredDate"] = latest.Format(dateLayout)
		}
		c.JSON(http.StatusOK, resp)
	}
}
