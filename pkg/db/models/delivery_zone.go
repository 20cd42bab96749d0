package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// DeliveryZone describes a coverage area and the terms for delivering into it.
type DeliveryZone struct {
	ID                         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	FarmID                     *uuid.UUID     `gorm:"column:farm_id;type:uuid"`
	Name                       string         `gorm:"column:name;not null"`
	IsActive                   bool           `gorm:"column:is_active;not null;default:true"`
	ZipCodes                   pq.StringArray `gorm:"column:zip_codes;type:text[]"`
	Cities                     pq.StringArray `gorm:"column:cities;type:text[]"`
	States                     pq.StringArray `gorm:"column:states;type:text[]"`
	DeliveryDays               pq.StringArray `gorm:"column:delivery_days;type:text[]"`
	ScheduledDates             pq.StringArray `gorm:"column:scheduled_dates;type:text[]"`
	DeliveryFeeCents           int            `gorm:"column:delivery_fee_cents;not null;default:0"`
	FreeDeliveryThresholdCents *int           `gorm:"column:free_delivery_threshold_cents"`
	MinimumOrderCents          int            `gorm:"column:minimum_order_cents;not null;default:0"`
	CreatedAt                  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (DeliveryZone) TableName() string { return "delivery_zones" }

func (z *DeliveryZone) BeforeCreate(*gorm.DB) error {
	if z.ID == uuid.Nil {
		z.ID = uuid.New()
	}
	return nil
}
