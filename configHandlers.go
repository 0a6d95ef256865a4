package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
)

func listProductPricesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfgs, err := models.ListProductPriceConfigs(c.Request.Context(), c.Query("dropshipperEmail"))
		if err != nil {
			abortWithError(c, "configHandlers.go", "listProductPricesHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"productPrices": cfgs})
	}
}

type productPriceRequest struct {
	DropshipperEmail   string          `json:"dropshipperEmail" binding:"required,email"`
	ProductUid         string          `json:"productUid" binding:"required"`
	ProductWeight      decimal.Decimal `json:"productWeight"`
	ProductCostPerUnit decimal.Decimal `json:"productCostPerUnit"`
	Currency           string          `json:"currency"`
}

func upsertProductPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req productPriceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		cfg := &models.ProductPriceConfig{
			DropshipperEmail:   req.DropshipperEmail,
			ProductUid:         req.ProductUid,
			ProductWeight:      req.ProductWeight,
			ProductCostPerUnit: req.ProductCostPerUnit,
			Currency:           req.Currency,
		}
		if err := models.UpsertProductPriceConfig(c.Request.Context(), cfg); err != nil {
			abortWithError(c, "configHandlers.go", "upsertProductPriceHandler", err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

func deleteProductPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid id")
			return
		}
		if err := models.DeleteProductPriceConfig(c.Request.Context(), id); err != nil {
			abortWithError(c, "configHandlers.go", "deleteProductPriceHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listShippingRatesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfgs, err := models.ListShippingRateConfigs(c.Request.Context())
		if err != nil {
			abortWithError(c, "configHandlers.go", "listShippingRatesHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"shippingRates": cfgs})
	}
}

type shippingRateRequest struct {
	ProductUid       string          `json:"productUid" binding:"required"`
	ProductWeight    decimal.Decimal `json:"productWeight"`
	ShippingProvider string          `json:"shippingProvider" binding:"required"`
	Rate             decimal.Decimal `json:"rate"`
	Currency         string          `json:"currency"`
}

func upsertShippingRateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req shippingRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		cfg := &models.ShippingRateConfig{
			ProductUid:       req.ProductUid,
			ProductWeight:    req.ProductWeight,
			ShippingProvider: req.ShippingProvider,
			Rate:             req.Rate,
			Currency:         req.Currency,
		}
		if err := models.UpsertShippingRateConfig(c.Request.Context(), cfg); err != nil {
			abortWithError(c, "configHandlers.go", "upsertShippingRateHandler", err)
			return
		}
		c.JSON(http.StatusOK, cfg)
	}
}

func deleteShippingRateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			badRequest(c, "invalid id")
			return
		}
		if err := models.DeleteShippingRateConfig(c.Request.Context(), id); err != nil {
			abortWithError(c, "configHandlers.go", "deleteShippingRateHandler", err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listCarrierDefaultsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := models.ListCarrierDefaultRates(c.Request.Context())
		if err != nil {
			abortWithError(c, "configHandlers.go", "listCarrierDefaultsHandler", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"carrierDefaults": rows})
	}
}

func upsertCarrierDefaultHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			ShippingProvider string          `json:"shippingProvider" binding:"required"`
			Rate             decimal.Decimal `json:"rate"`
			Currency         string          `json:"currency"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		row := &models.CarrierDefaultRate{
			ShippingProvider: req.ShippingProvider,
			Rate:             req.Rate,
			Currency:         req.Currency,
		}
		if err := models.UpsertCarrierDefaultRate(c.Request.Context(), row); err != nil {
			abortWithError(c, "configHandlers.go", "upsertCarrierDefaultHandler", err)
			return
		}
		c.JSON(http.StatusOK, row)
	}
}

// configImportRow tolerates spreadsheet-ish amount strings ("₹1,250", "Rs 40")
// on the bulk import path; single-row endpoints take proper decimals.
type configImportRow struct {
	DropshipperEmail string `json:"dropshipperEmail"`
	ProductUid       string `json:"productUid" binding:"required"`
	ProductWeight    string `json:"productWeight"`
	CostPerUnit      string `json:"costPerUnit"`
	ShippingProvider string `json:"shippingProvider"`
	Rate             string `json:"rate"`
	Currency         string `json:"currency"`
}

type importConfigRequest struct {
	ProductPrices []configImportRow `json:"productPrices" binding:"dive"`
	ShippingRates []configImportRow `json:"shippingRates" binding:"dive"`
}

// importConfigHandler is the settings-import bulk upsert.
func importConfigHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req importConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		prices := make([]*models.ProductPriceConfig, 0, len(req.ProductPrices))
		for _, row := range req.ProductPrices {
			if row.DropshipperEmail == "" || !utils.IsValidEmail(row.DropshipperEmail) {
				badRequest(c, "product price row for "+row.ProductUid+" has no valid dropshipper email")
				return
			}
			weight, err := utils.ParseMoney(row.ProductWeight)
			if err != nil {
				weight = decimal.Zero
			}
			cost, err := utils.ParseMoney(row.CostPerUnit)
			if err != nil {
				badRequest(c, "unparsable cost for product "+row.ProductUid)
				return
			}
			prices = append(prices, &models.ProductPriceConfig{
				DropshipperEmail:   row.DropshipperEmail,
				ProductUid:         row.ProductUid,
				ProductWeight:      weight,
				ProductCostPerUnit: cost,
				Currency:           row.Currency,
			})
		}

		rates := make([]*models.ShippingRateConfig, 0, len(req.ShippingRates))
		for _, row := range req.ShippingRates {
			if row.ShippingProvider == "" {
				badRequest(c, "shipping rate row for "+row.ProductUid+" has no provider")
				return
			}
			weight, err := utils.ParseMoney(row.ProductWeight)
			if err != nil {
				weight = decimal.Zero
			}
			rate, err := utils.ParseMoney(row.Rate)
			if err != nil {
				badRequest(c, "unparsable rate for product "+row.ProductUid)
				return
			}
			rates = append(rates, &models.ShippingRateConfig{
				ProductUid:       row.ProductUid,
				ProductWeight:    weight,
				ShippingProvider: row.ShippingProvider,
				Rate:             rate,
				Currency:         row.Currency,
			})
		}

		ctx := c.Request.Context()
		if err := models.BulkUpsertProductPriceConfigs(ctx, prices); err != nil {
			abortWithError(c, "configHandlers.go", "importConfigHandler", err)
			return
		}
		if err := models.BulkUpsertShippingRateConfigs(ctx, rates); err != nil {
			abortWithError(c, "configHandlers.go", "importConfigHandler", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"productPricesImported": len(prices),
			"shippingRatesImported": len(rates),
		})
	}
}
