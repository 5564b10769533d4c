package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentEntry is one recorded payment applied against a period. Entries are
// append-only; the id doubles as the dedup key when snapshots are merged.
type PaymentEntry struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PeriodID   uuid.UUID       `gorm:"column:period_id;type:uuid;not null;index"`
	Amount     decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null"`
	Carryover  bool            `gorm:"column:carryover;not null;default:false"`
	RecordedAt time.Time       `gorm:"column:recorded_at;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
