package nearby

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/fulfillment"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
)

const (
	DefaultLimit     = 3
	defaultBatchSize = 100
	defaultTimeout   = 5 * time.Second
)

// ProductReader is the slice of the catalog the nearby lookup needs.
type ProductReader interface {
	FindActiveProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type Options struct {
	Limit        int
	BatchSize    int
	QueryTimeout time.Duration
}

// Service returns the products closest to a reference point, excluding the one being viewed.
type Service struct {
	catalog ProductReader
	engine  *ranking.Engine
	opts    Options
	logg    *logger.Logger
	metrics *metrics.DiscoveryMetrics
}

func NewService(reader ProductReader, engine *ranking.Engine, opts Options, logg *logger.Logger, m *metrics.DiscoveryMetrics) (*Service, error) {
	if reader == nil {
		return nil, errors.New("catalog reader is required")
	}
	if engine == nil {
		return nil, errors.New("ranking engine is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultTimeout
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{catalog: reader, engine: engine, opts: opts, logg: logg, metrics: m}, nil
}

// GetNearbyProducts never fails; a catalog fault yields an empty list.
func (s *Service) GetNearbyProducts(ctx context.Context, excludeID uuid.UUID, ref geo.Coordinate) []ranking.RankedProduct {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"component":  "nearby",
		"product_id": excludeID.String(),
	})
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	filter := catalog.ActiveApproved(s.opts.BatchSize)
	if excludeID != uuid.Nil {
		filter.ExcludeProductID = &excludeID
	}
	products, err := s.catalog.FindActiveProducts(queryCtx, filter)
	if err != nil {
		s.metrics.IncUpstreamFailure("catalog")
		s.logg.WarnErr(ctx, "nearby.query_failed", err)
		return []ranking.RankedProduct{}
	}

	// The repository already excludes the product; this guards fakes and stale rows.
	filtered := products[:0:0]
	for _, p := range products {
		if p.ID != excludeID {
			filtered = append(filtered, p)
		}
	}
	return s.engine.Nearest(filtered, ref, s.opts.Limit)
}

// ReferenceFor returns the coordinate of the product's first measurable pickup location,
// preferring its primary stand. It returns nil with no error when the product has none.
func (s *Service) ReferenceFor(ctx context.Context, productID uuid.UUID) (*geo.Coordinate, error) {
	product, err := s.catalog.FindProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	for _, loc := range fulfillment.Resolve(product).PickupLocations {
		if loc.Coordinate != nil {
			ref := *loc.Coordinate
			return &ref, nil
		}
	}
	return nil, nil
}
