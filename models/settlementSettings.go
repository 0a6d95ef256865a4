package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdropship/settlements_backend/config"
	"github.com/mmdropship/settlements_backend/utils"
	"gorm.io/gorm"
)

// Frequency names a recurring payout cycle. The weekday presets are fixed;
// only "custom" reads SettlementSettings.CustomWeekdays.
type Frequency string

const (
	FrequencyMonthly      Frequency = "monthly"
	FrequencyTwiceWeekly  Frequency = "twice_weekly"
	FrequencyThriceWeekly Frequency = "thrice_weekly"
	FrequencyDailyWeekday Frequency = "daily_weekday"
	FrequencyCustom       Frequency = "custom"
)

var ErrUnknownFrequency = errors.New("unknown settlement frequency")

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(strings.ToLower(strings.TrimSpace(s))) {
	case FrequencyMonthly:
		return FrequencyMonthly, nil
	case FrequencyTwiceWeekly:
		return FrequencyTwiceWeekly, nil
	case FrequencyThriceWeekly:
		return FrequencyThriceWeekly, nil
	case FrequencyDailyWeekday:
		return FrequencyDailyWeekday, nil
	case FrequencyCustom:
		return FrequencyCustom, nil
	default:
		return "", ErrUnknownFrequency
	}
}

// runsOn reports whether the frequency schedules a run on the given day.
func (f Frequency) runsOn(day time.Time, customWeekdays []time.Weekday) bool {
	switch f {
	case FrequencyMonthly:
		return utils.IsLastDayOfMonth(day)
	case FrequencyTwiceWeekly:
		return day.Weekday() == time.Tuesday || day.Weekday() == time.Friday
	case FrequencyThriceWeekly:
		return day.Weekday() == time.Monday || day.Weekday() == time.Wednesday || day.Weekday() == time.Friday
	case FrequencyDailyWeekday:
		return day.Weekday() >= time.Monday && day.Weekday() <= time.Friday
	case FrequencyCustom:
		for _, wd := range customWeekdays {
			if day.Weekday() == wd {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// SettlementSettings is the frequency policy applied to a run generation.
// Persisted per dropshipper as defaults; requests may override any field.
type SettlementSettings struct {
	ID               int            `gorm:"primary_key" json:"id"`
	DropshipperEmail string         `gorm:"size:255;not null;uniqueIndex" json:"dropshipperEmail"`
	Frequency        Frequency      `gorm:"size:32;not null;default:'twice_weekly'" json:"frequency"`
	CutoffOffsetDays int            `gorm:"not null;default:2" json:"cutoffOffsetDays"`
	Anchored         bool           `gorm:"not null;default:true" json:"anchored"`
	CustomWeekdays   []time.Weekday `gorm:"serializer:json" json:"customWeekdays"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

// GetSettlementSettings returns the stored defaults for a dropshipper, or the
// built-in defaults when none are stored ("" = global).
func GetSettlementSettings(ctx context.Context, dropshipperEmail string) (*SettlementSettings, error) {
	db := config.GetDB()
	var s SettlementSettings
	err := db.WithContext(ctx).
		Where("dropshipper_email = ?", strings.ToLower(strings.TrimSpace(dropshipperEmail))).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &SettlementSettings{
			DropshipperEmail: strings.ToLower(strings.TrimSpace(dropshipperEmail)),
			Frequency:        FrequencyTwiceWeekly,
			CutoffOffsetDays: 2,
			Anchored:         true,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func SaveSettlementSettings(ctx context.Context, s *SettlementSettings) error {
	s.DropshipperEmail = strings.ToLower(strings.TrimSpace(s.DropshipperEmail))
	db := config.GetDB()
	var existing SettlementSettings
	err := db.WithContext(ctx).Where("dropshipper_email = ?", s.DropshipperEmail).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return db.WithContext(ctx).Create(s).Error
	}
	if err != nil {
		return err
	}
	s.ID = existing.ID
	return db.WithContext(ctx).Save(s).Error
}

var ErrAnchorConflict = errors.New("scheduler anchors changed since read")

// SchedulerAnchors is the explicit, versioned anchor record for a dropshipper
// ("" = global). It is read before run generation and advanced only on a
// successful export, never as ambient state.
type SchedulerAnchors struct {
	ID                  int        `gorm:"primary_key" json:"id"`
	DropshipperEmail    string     `gorm:"size:255;not null;uniqueIndex" json:"dropshipperEmail"`
	LastPaymentDoneOn   *time.Time `json:"lastPaymentDoneOn"`
	LastDeliveredCutoff *time.Time `json:"lastDeliveredCutoff"`
	Version             int        `gorm:"not null;default:0" json:"version"`
	CreatedAt           time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func GetSchedulerAnchors(ctx context.Context, dropshipperEmail string) (*SchedulerAnchors, error) {
	db := config.GetDB()
	email := strings.ToLower(strings.TrimSpace(dropshipperEmail))
	var a SchedulerAnchors
	err := db.WithContext(ctx).Where("dropshipper_email = ?", email).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		a = SchedulerAnchors{DropshipperEmail: email}
		if cerr := db.WithContext(ctx).Create(&a).Error; cerr != nil {
			return nil, cerr
		}
		return &a, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AdvanceSchedulerAnchors moves the anchors to a run's window ends inside the
// caller's transaction, with an optimistic version check. If another request
// advanced the anchors since this one read them, ErrAnchorConflict is
// returned and the caller's transaction must roll back.
func AdvanceSchedulerAnchors(tx *gorm.DB, ctx context.Context, a *SchedulerAnchors, paymentDoneOn, deliveredCutoff time.Time) error {
	res := tx.WithContext(ctx).Model(&SchedulerAnchors{}).
		Where("id = ? AND version = ?", a.ID, a.Version).
		Updates(map[string]interface{}{
			"last_payment_done_on":  paymentDoneOn,
			"last_delivered_cutoff": deliveredCutoff,
			"version":               a.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAnchorConflict
	}
	a.LastPaymentDoneOn = &paymentDoneOn
	a.LastDeliveredCutoff = &deliveredCutoff
	a.Version++
	return nil
}
