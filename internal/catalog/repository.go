package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/farmstand-backend/pkg/db"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
	"github.com/angelmondragon/farmstand-backend/pkg/pagination"
)

// ProductFilter narrows FindActiveProducts. Nil pointers leave that column unfiltered.
type ProductFilter struct {
	IsActive         *bool
	Status           *enums.ProductStatus
	Limit            int
	Cursor           string
	MarketStandID    *uuid.UUID
	ExcludeProductID *uuid.UUID
}

// ActiveApproved is the filter every discovery surface starts from.
func ActiveApproved(limit int) ProductFilter {
	active := true
	status := enums.ProductStatusApproved
	return ProductFilter{IsActive: &active, Status: &status, Limit: limit}
}

// Reader is the read surface the discovery services depend on.
type Reader interface {
	FindActiveProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActiveStands(ctx context.Context, limit int) ([]models.MarketStand, error)
	ListActiveFarms(ctx context.Context, limit int) ([]models.Farm, error)
}

// Repository reads the product catalog through GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn}
}

func withRelations(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("MarketStand").
		Preload("StandListings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("StandListings.MarketStand").
		Preload("DeliveryZone").
		Preload("DeliveryListings", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("DeliveryListings.DeliveryZone")
}

// FindActiveProducts returns products newest first with their pickup and delivery
// relations loaded.
func (r *Repository) FindActiveProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := withRelations(r.db.WithContext(ctx).Model(&models.Product{}))

	if filter.IsActive != nil {
		query = query.Where("products.is_active = ?", *filter.IsActive)
	}
	if filter.Status != nil {
		query = query.Where("products.status = ?", *filter.Status)
	}
	if filter.ExcludeProductID != nil {
		query = query.Where("products.id <> ?", *filter.ExcludeProductID)
	}
	if filter.MarketStandID != nil {
		query = query.Where(
			"products.market_stand_id = ? OR products.id IN (?)",
			*filter.MarketStandID,
			r.db.WithContext(ctx).Model(&models.ProductStandListing{}).
				Select("product_id").
				Where("market_stand_id = ? AND is_active = ?", *filter.MarketStandID, true),
		)
	}

	cursor, err := pagination.ParseCursor(filter.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	if err := query.
		Order("products.created_at DESC").
		Order("products.id DESC").
		Limit(pagination.NormalizeLimit(filter.Limit)).
		Find(&products).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find active products")
	}
	return products, nil
}

// FindProductByID loads one product with its relations.
func (r *Repository) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withRelations(r.db.WithContext(ctx)).First(&product, "products.id = ?", id).Error; err != nil {
		if db.IsRecordNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find product")
	}
	return &product, nil
}

// ListActiveStands returns active stands that have coordinates.
func (r *Repository) ListActiveStands(ctx context.Context, limit int) ([]models.MarketStand, error) {
	var stands []models.MarketStand
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&stands).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active stands")
	}
	return stands, nil
}

// ListActiveFarms returns active farms that have coordinates.
func (r *Repository) ListActiveFarms(ctx context.Context, limit int) ([]models.Farm, error) {
	var farms []models.Farm
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND latitude IS NOT NULL AND longitude IS NOT NULL", true).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&farms).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active farms")
	}
	return farms, nil
}

// NextCursor returns the cursor for the page after products, or "" when the page was short.
func NextCursor(products []models.Product, limit int) string {
	if len(products) == 0 || len(products) < pagination.NormalizeLimit(limit) {
		return ""
	}
	last := products[len(products)-1]
	return pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
}
