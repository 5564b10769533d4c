package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/arjnair/dineflow-backend/pkg/enums"
)

// Transaction is an immutable record of one customer payment event. The
// derived fee fields are computed once at ingest and never change.
type Transaction struct {
	ID             uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID   uuid.UUID               `gorm:"column:restaurant_id;type:uuid;not null;index"`
	OrderReference string                  `gorm:"column:order_reference;not null"`
	PaymentMethod  string                  `gorm:"column:payment_method;not null"`
	GrossAmount    decimal.Decimal         `gorm:"column:gross_amount;type:numeric(12,4);not null"`
	Subtotal       decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,4);not null"`
	PlatformFee    decimal.Decimal         `gorm:"column:platform_fee;type:numeric(12,4);not null"`
	GatewayFee     decimal.Decimal         `gorm:"column:gateway_fee;type:numeric(12,4);not null"`
	GST            decimal.Decimal         `gorm:"column:gst;type:numeric(12,4);not null"`
	NetEarnings    decimal.Decimal         `gorm:"column:net_earnings;type:numeric(12,4);not null"`
	Status         enums.TransactionStatus `gorm:"column:status;type:transaction_status;not null;default:'pending'"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
}
