package models

import (
	"log"

	"github.com/mmdropship/settlements_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&OrderRecord{},
		&ProductPriceConfig{}, &ShippingRateConfig{}, &CarrierDefaultRate{},
		&PayoutLedgerEntry{}, &ReconciliationRecord{},
		&SettlementRun{}, &SettlementSettings{}, &SchedulerAnchors{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
