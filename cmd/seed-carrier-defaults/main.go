package main

import (
	"context"
	"log"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/models"
)

// Seeds the carrier default rate table (including the "*" global minimum row)
// without touching operator-tuned values. Safe to re-run.
func main() {
	config.ConnectDatabaseWithRetry()
	ctx := context.Background()

	models.MigrateTable()
	if err := models.SeedCarrierDefaultRates(ctx); err != nil {
		log.Fatalf("seed carrier defaults: %v", err)
	}

	rows, err := models.ListCarrierDefaultRates(ctx)
	if err != nil {
		log.Fatalf("list carrier defaults: %v", err)
	}
	for _, row := range rows {
		log.Printf("%s -> %s %s", row.ShippingProvider, row.Rate.String(), row.Currency)
	}
	log.Printf("seeded %d carrier default rates", len(rows))
}
