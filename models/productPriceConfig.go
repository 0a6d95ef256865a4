package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductPriceConfig holds per-dropshipper product cost and weight. Keyed by
// (dropshipper email, product uid); upserts are last-write-wins.
type ProductPriceConfig struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	DropshipperEmail   string          `gorm:"size:255;not null;uniqueIndex:idx_price_key,priority:1" json:"dropshipperEmail"`
	ProductUid         string          `gorm:"size:255;not null;uniqueIndex:idx_price_key,priority:2" json:"productUid"`
	ProductWeight      decimal.Decimal `gorm:"type:decimal(10,3);not null" json:"productWeight"`
	ProductCostPerUnit decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"productCostPerUnit"`
	Currency           string          `gorm:"size:10;not null;default:'INR'" json:"currency"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (c *ProductPriceConfig) normalize() {
	c.DropshipperEmail = strings.ToLower(strings.TrimSpace(c.DropshipperEmail))
	c.ProductUid = strings.TrimSpace(c.ProductUid)
	if c.Currency == "" {
		c.Currency = "INR"
	}
}

// UpsertProductPriceConfig writes the config for its key, replacing any
// previous values (last write wins).
func UpsertProductPriceConfig(ctx context.Context, cfg *ProductPriceConfig) error {
	cfg.normalize()
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dropshipper_email"}, {Name: "product_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_weight", "product_cost_per_unit", "currency", "updated_at"}),
	}).Create(cfg).Error
}

// BulkUpsertProductPriceConfigs is the settings-import path.
func BulkUpsertProductPriceConfigs(ctx context.Context, cfgs []*ProductPriceConfig) error {
	if len(cfgs) == 0 {
		return nil
	}
	for _, cfg := range cfgs {
		cfg.normalize()
	}
	db := config.GetDB()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dropshipper_email"}, {Name: "product_uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"product_weight", "product_cost_per_unit", "currency", "updated_at"}),
	}).CreateInBatches(cfgs, 200).Error
}

func GetProductPriceConfig(ctx context.Context, dropshipperEmail, productUid string) (*ProductPriceConfig, error) {
	db := config.GetDB()
	var cfg ProductPriceConfig
	err := db.WithContext(ctx).
		Where("dropshipper_email = ? AND product_uid = ?", strings.ToLower(strings.TrimSpace(dropshipperEmail)), productUid).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ListProductPriceConfigs(ctx context.Context, dropshipperEmail string) ([]*ProductPriceConfig, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if dropshipperEmail != "" && dropshipperEmail != "all" {
		dbCtx = dbCtx.Where("dropshipper_email = ?", dropshipperEmail)
	}
	var cfgs []*ProductPriceConfig
	if err := dbCtx.Order("dropshipper_email, product_uid").Find(&cfgs).Error; err != nil {
		return nil, err
	}
	return cfgs, nil
}

func DeleteProductPriceConfig(ctx context.Context, id int) error {
	db := config.GetDB()
	res := db.WithContext(ctx).Delete(&ProductPriceConfig{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// PriceMap indexes price configs by dropshipper email + product uid for the
// calculator's in-memory pass.
type PriceMap map[string]*ProductPriceConfig

func priceMapKey(dropshipperEmail, productUid string) string {
	return strings.ToLower(strings.TrimSpace(dropshipperEmail)) + "|" + productUid
}

func (m PriceMap) Lookup(dropshipperEmail, productUid string) (*ProductPriceConfig, bool) {
	cfg, ok := m[priceMapKey(dropshipperEmail, productUid)]
	return cfg, ok
}

// LoadPriceMap snapshots every price config (optionally one dropshipper's)
// into memory for a calculation pass.
func LoadPriceMap(ctx context.Context, dropshipperEmail string) (PriceMap, error) {
	cfgs, err := ListProductPriceConfigs(ctx, dropshipperEmail)
	if err != nil {
		return nil, err
	}
	m := make(PriceMap, len(cfgs))
	for _, cfg := range cfgs {
		m[priceMapKey(cfg.DropshipperEmail, cfg.ProductUid)] = cfg
	}
	return m, nil
}
