package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjnair/dineflow-backend/pkg/enums"
)

// SettlementPeriod is one calendar-month billing obligation. PeriodKey is the
// month label ("January 2026"); it is unique per settlement so redundant
// rollover runs cannot open the same month twice.
type SettlementPeriod struct {
	ID                    uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	SettlementID          uuid.UUID          `gorm:"column:settlement_id;type:uuid;not null;uniqueIndex:ux_settlement_periods_settlement_period,priority:1"`
	PeriodKey             string             `gorm:"column:period_key;not null;uniqueIndex:ux_settlement_periods_settlement_period,priority:2"`
	TotalAmountDue        decimal.Decimal    `gorm:"column:total_amount_due;type:numeric(12,2);not null"`
	DefaultAmountForMonth decimal.Decimal    `gorm:"column:default_amount_for_month;type:numeric(12,2);not null"`
	CarryOverCredit       decimal.Decimal    `gorm:"column:carry_over_credit;type:numeric(12,2);not null;default:0"`
	OverpaymentAmount     decimal.Decimal    `gorm:"column:overpayment_amount;type:numeric(12,2);not null;default:0"`
	TotalPaid             decimal.Decimal    `gorm:"column:total_paid;type:numeric(12,2);not null;default:0"`
	Status                enums.PeriodStatus `gorm:"column:status;type:period_status;not null;default:'pending'"`
	CycleStartDate        time.Time          `gorm:"column:cycle_start_date;not null"`
	SettledDate           *time.Time         `gorm:"column:settled_date"`
	CreatedAt             time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`

	Payments []PaymentEntry `gorm:"foreignKey:PeriodID"`
}
