package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstand-backend/pkg/types"
)

// MarketStand is a physical pickup location run by a farm.
type MarketStand struct {
	ID           uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	FarmID       *uuid.UUID           `gorm:"column:farm_id;type:uuid"`
	Name         string               `gorm:"column:name;not null"`
	Description  *string              `gorm:"column:description"`
	LocationName string               `gorm:"column:location_name;not null;default:''"`
	Latitude     *float64             `gorm:"column:latitude"`
	Longitude    *float64             `gorm:"column:longitude"`
	IsActive     bool                 `gorm:"column:is_active;not null;default:true"`
	Hours        types.OperatingHours `gorm:"column:hours;type:jsonb"`
	Tags         pq.StringArray       `gorm:"column:tags;type:text[]"`
	CreatedAt    time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (MarketStand) TableName() string { return "market_stands" }

func (s *MarketStand) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// HasCoordinates reports whether both latitude and longitude are set.
func (s *MarketStand) HasCoordinates() bool {
	return s != nil && s.Latitude != nil && s.Longitude != nil
}
