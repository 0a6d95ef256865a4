package models

import (
	"context"
	"strings"
	"time"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// ShippingRateConfig holds a configured rate for one
// (product uid, weight, carrier) combination.
type ShippingRateConfig struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ProductUid       string          `gorm:"size:255;not null;uniqueIndex:idx_rate_key,priority:1" json:"productUid"`
	ProductWeight    decimal.Decimal `gorm:"type:decimal(10,3);not null;uniqueIndex:idx_rate_key,priority:2" json:"productWeight"`
	ShippingProvider string          `gorm:"size:100;not null;uniqueIndex:idx_rate_key,priority:3" json:"shippingProvider"`
	Rate             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Currency         string          `gorm:"size:10;not null;default:'INR'" json:"currency"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *ShippingRateConfig) normalize() {
	c.ProductUid = strings.TrimSpace(c.ProductUid)
	c.ShippingProvider = strings.ToLower(strings.TrimSpace(c.ShippingProvider))
	if c.Currency == "" {
		c.Currency = "INR"
	}
}

func UpsertShippingRateConfig(ctx context.Context, cfg *ShippingRateConfig) error {
	cfg.normalize()
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_uid"}, {Name: "product_weight"}, {Name: "shipping_provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "currency", "updated_at"}),
	}).Create(cfg).Error
}

func BulkUpsertShippingRateConfigs(ctx context.Context, cfgs []*ShippingRateConfig) error {
	if len(cfgs) == 0 {
		return nil
	}
	for _, cfg := range cfgs {
		cfg.normalize()
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_uid"}, {Name: "product_weight"}, {Name: "shipping_provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "currency", "updated_at"}),
	}).CreateInBatches(cfgs, 200).Error
}

func ListShippingRateConfigs(ctx context.Context) ([]*ShippingRateConfig, error) {
	db := config.GetDB()
	var cfgs []*ShippingRateConfig
	if err := db.WithContext(ctx).Order("product_uid, shipping_provider, product_weight").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}

func DeleteShippingRateConfig(ctx context.Context, id int) error {
	db := config.GetDB()
	res := db.WithContext(ctx).Delete(&ShippingRateConfig{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// GlobalDefaultProvider is the reserved carrier-default row holding the
// global minimum rate used when the carrier itself is unknown.
const GlobalDefaultProvider = "*"

// CarrierDefaultRate is the Default tier of the rate hierarchy, kept as data
// instead of inline constants so operations can retune baselines without a
// deploy.
type CarrierDefaultRate struct {
	ID               int             `gorm:"primary_key" json:"id"`
	ShippingProvider string          `gorm:"size:100;not null;uniqueIndex" json:"shippingProvider"`
	Rate             decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"rate"`
	Currency         string          `gorm:"size:10;not null;default:'INR'" json:"currency"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func UpsertCarrierDefaultRate(ctx context.Context, row *CarrierDefaultRate) error {
	row.ShippingProvider = strings.ToLower(strings.TrimSpace(row.ShippingProvider))
	if row.Currency == "" {
		row.Currency = "INR"
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shipping_provider"}},
		DoUpdates: clause.AssignmentColumns([]string{"rate", "currency", "updated_at"}),
	}).Create(row).Error
}

func ListCarrierDefaultRates(ctx context.Context) ([]*CarrierDefaultRate, error) {
	db := config.GetDB()
	var rows []*CarrierDefaultRate
	if err := db.WithContext(ctx).Order("shipping_provider").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SeedCarrierDefaultRates installs the built-in per-carrier baselines and the
// global minimum, without overwriting operator-tuned values.
func SeedCarrierDefaultRates(ctx context.Context) error {
	seeds := []*CarrierDefaultRate{
		{ShippingProvider: "delhivery", Rate: decimal.NewFromInt(30)},
		{ShippingProvider: "bluedart", Rate: decimal.NewFromInt(35)},
		{ShippingProvider: "xpressbees", Rate: decimal.NewFromInt(28)},
		{ShippingProvider: "ecom express", Rate: decimal.NewFromInt(30)},
		{ShippingProvider: "dtdc", Rate: decimal.NewFromInt(32)},
		{ShippingProvider: "shadowfax", Rate: decimal.NewFromInt(27)},
		{ShippingProvider: GlobalDefaultProvider, Rate: decimal.NewFromInt(25)},
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shipping_provider"}},
		DoNothing: true,
	}).Create(&seeds).Error
}
