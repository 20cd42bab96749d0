package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstand-backend/pkg/enums"
)

// Product is a purchasable catalog listing with its pickup and delivery relations.
type Product struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	FarmID             *uuid.UUID          `gorm:"column:farm_id;type:uuid"`
	Name               string              `gorm:"column:name;not null"`
	Description        *string             `gorm:"column:description"`
	PriceCents         int                 `gorm:"column:price_cents;not null"`
	Images             pq.StringArray      `gorm:"column:images;type:text[]"`
	Tags               pq.StringArray      `gorm:"column:tags;type:text[]"`
	Inventory          int                 `gorm:"column:inventory;not null;default:0"`
	InventoryUpdatedAt *time.Time          `gorm:"column:inventory_updated_at"`
	IsActive           bool                `gorm:"column:is_active;not null;default:true"`
	Status             enums.ProductStatus `gorm:"column:status;not null;default:'draft'"`
	AvailableFrom      *time.Time          `gorm:"column:available_from"`
	AvailableUntil     *time.Time          `gorm:"column:available_until"`

	MarketStandID     *uuid.UUID    `gorm:"column:market_stand_id;type:uuid"`
	MarketStand       *MarketStand  `gorm:"foreignKey:MarketStandID"`
	DeliveryAvailable bool          `gorm:"column:delivery_available;not null;default:false"`
	DeliveryZoneID    *uuid.UUID    `gorm:"column:delivery_zone_id;type:uuid"`
	DeliveryZone      *DeliveryZone `gorm:"foreignKey:DeliveryZoneID"`

	StandListings    []ProductStandListing    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DeliveryListings []ProductDeliveryListing `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductStandListing cross-lists a product at an additional market stand.
type ProductStandListing struct {
	ID            uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	ProductID     uuid.UUID    `gorm:"column:product_id;type:uuid;not null"`
	MarketStandID uuid.UUID    `gorm:"column:market_stand_id;type:uuid;not null"`
	MarketStand   *MarketStand `gorm:"foreignKey:MarketStandID"`
	IsActive      bool         `gorm:"column:is_active;not null;default:true"`
	CreatedAt     time.Time    `gorm:"column:created_at;autoCreateTime"`
}

func (ProductStandListing) TableName() string { return "product_stand_listings" }

func (l *ProductStandListing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// ProductDeliveryListing offers a product into an additional delivery zone.
type ProductDeliveryListing struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID     `gorm:"column:product_id;type:uuid;not null"`
	DeliveryZoneID uuid.UUID     `gorm:"column:delivery_zone_id;type:uuid;not null"`
	DeliveryZone   *DeliveryZone `gorm:"foreignKey:DeliveryZoneID"`
	IsActive       bool          `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (ProductDeliveryListing) TableName() string { return "product_delivery_listings" }

func (l *ProductDeliveryListing) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
