package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/arjnair/dineflow-backend/pkg/enums"
)

// Restaurant is a tenant on the platform. Status gates whether the rollover
// worker opens new billing periods for it.
type Restaurant struct {
	ID            uuid.UUID              `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string                 `gorm:"column:name;not null"`
	Status        enums.RestaurantStatus `gorm:"column:status;type:restaurant_status;not null;default:'active'"`
	DeactivatedAt *time.Time             `gorm:"column:deactivated_at"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
