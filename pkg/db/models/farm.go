package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Farm is the producer profile that owns stands and products.
type Farm struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Description  *string        `gorm:"column:description"`
	LocationName string         `gorm:"column:location_name;not null;default:''"`
	Latitude     *float64       `gorm:"column:latitude"`
	Longitude    *float64       `gorm:"column:longitude"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	Tags         pq.StringArray `gorm:"column:tags;type:text[]"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Farm) TableName() string { return "farms" }

func (f *Farm) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
