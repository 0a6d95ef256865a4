package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/mmdropship/settlements_backend/models/reports"
	"github.com/mmdropship/settlements_backend/utils"
)

const dateLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// abortWithError maps engine errors to HTTP statuses. Validation problems are
// the caller's fault; anchor conflicts and duplicate reconciliations are
// conflicts; everything else is logged and reported as a 500.
func abortWithError(c *gin.Context, moduleName, funcName string, err error) {
	var vErrs validator.ValidationErrors
	switch {
	case errors.As(err, &vErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
	case errors.Is(err, models.ErrAlreadyReconciled),
		errors.Is(err, models.ErrAnchorConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound),
		errors.Is(err, reports.ErrRunNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrUnknownFrequency),
		errors.Is(err, models.ErrUnknownChargePolicy):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), moduleName, funcName, c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
