package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("dropship-settlements")

func main() {
	logger := config.GetLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Until DB/Redis are ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		// Always allow the startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production, require an explicit allowlist via CORS_ALLOWED_ORIGINS
	// (comma-separated); in non-production allow all for developer convenience.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/orders/import", importOrdersHandler())
		api.GET("/orders/date-bounds", orderDateBoundsHandler())

		api.GET("/config/product-prices", listProductPricesHandler())
		api.POST("/config/product-prices", upsertProductPriceHandler())
		api.DELETE("/config/product-prices/:id", deleteProductPriceHandler())
		api.GET("/config/shipping-rates", listShippingRatesHandler())
		api.POST("/config/shipping-rates", upsertShippingRateHandler())
		api.DELETE("/config/shipping-rates/:id", deleteShippingRateHandler())
		api.GET("/config/carrier-defaults", listCarrierDefaultsHandler())
		api.PUT("/config/carrier-defaults", upsertCarrierDefaultHandler())
		api.POST("/config/import", importConfigHandler())

		api.POST("/payouts/calculate", calculatePayoutsHandler())
		api.GET("/payouts/export", exportPayoutsHandler())

		api.POST("/reconciliations/autodetect", autoDetectReversalsHandler())
		api.POST("/reconciliations", reconcileHandler())
		api.GET("/reconciliations/pending", pendingReconciliationsHandler())

		api.POST("/settlements/runs", generateSettlementRunsHandler())
		api.POST("/settlements/export", exportSettlementRunHandler())
		api.GET("/settlements/runs", listSettlementRunsHandler())
		api.GET("/settlements/settings", getSettlementSettingsHandler())
		api.PUT("/settlements/settings", saveSettlementSettingsHandler())
	}

	// Start listening immediately (the startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow disabling on startup
	// and running migrations as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
		if err := models.SeedCarrierDefaultRates(context.Background()); err != nil {
			logger.WithFields(logrus.Fields{"field": "seed"}).Warn("failed to seed carrier default rates: " + err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	log.Println("Server started successfully on port " + port)

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger logs only requests that collected errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
