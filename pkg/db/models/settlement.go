package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Settlement is a restaurant's overall billing record. CycleStartDate is set
// once, when the default amount is first configured, and never changes.
// CurrentOverpayment is the restaurant-level running credit balance applied
// as carryover when new periods open.
type Settlement struct {
	ID                 uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID       uuid.UUID       `gorm:"column:restaurant_id;type:uuid;not null;uniqueIndex"`
	RestaurantName     string          `gorm:"column:restaurant_name;not null"`
	DefaultAmount      decimal.Decimal `gorm:"column:default_amount;type:numeric(12,2);not null"`
	CycleStartDate     *time.Time      `gorm:"column:cycle_start_date"`
	CurrentOverpayment decimal.Decimal `gorm:"column:current_overpayment;type:numeric(12,2);not null;default:0"`
	Version            int64           `gorm:"column:version;not null;default:0"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Periods []SettlementPeriod `gorm:"foreignKey:SettlementID"`
}
