package search

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/geo"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/maps"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
)

const (
	DefaultRadiusKm     = 320.0
	defaultProductBatch = 50
	defaultEntityLimit  = 100
	defaultQueryTimeout = 5 * time.Second
)

// Reader is the slice of the catalog search reads from.
type Reader interface {
	FindActiveProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error)
	ListActiveStands(ctx context.Context, limit int) ([]models.MarketStand, error)
	ListActiveFarms(ctx context.Context, limit int) ([]models.Farm, error)
}

type Options struct {
	RadiusKm     float64
	ProductBatch int
	EntityLimit  int
	QueryTimeout time.Duration
}

// OptionsFromConfig maps discovery config onto search options.
func OptionsFromConfig(cfg config.DiscoveryConfig) Options {
	return Options{
		RadiusKm:     cfg.SearchRadiusKm,
		ProductBatch: cfg.SearchBatchSize,
		QueryTimeout: cfg.LiveQueryTimeout,
	}
}

func (o Options) withDefaults() Options {
	if o.RadiusKm <= 0 {
		o.RadiusKm = DefaultRadiusKm
	}
	if o.ProductBatch <= 0 {
		o.ProductBatch = defaultProductBatch
	}
	if o.EntityLimit <= 0 {
		o.EntityLimit = defaultEntityLimit
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = defaultQueryTimeout
	}
	return o
}

// PickupLocation is a market stand matched by search.
type PickupLocation struct {
	ID            string         `json:"id"`
	FarmID        *string        `json:"farm_id,omitempty"`
	Name          string         `json:"name"`
	Description   *string        `json:"description"`
	LocationName  string         `json:"location_name"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	Tags          []string       `json:"tags"`
	IsOpenNow     *bool          `json:"is_open_now"`
	DistanceKm    float64        `json:"distance_km"`
	DistanceMiles float64        `json:"distance_miles"`
}

// Farm is a producer matched by search.
type Farm struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   *string        `json:"description"`
	LocationName  string         `json:"location_name"`
	Coordinate    geo.Coordinate `json:"coordinate"`
	Tags          []string       `json:"tags"`
	DistanceKm    float64        `json:"distance_km"`
	DistanceMiles float64        `json:"distance_miles"`
}

// Result groups every entity kind search returns. Location is nil when the zip could not
// be resolved.
type Result struct {
	Products        []ranking.RankedProduct `json:"products"`
	PickupLocations []PickupLocation        `json:"pickup_locations"`
	Farms           []Farm                  `json:"farms"`
	Location        *geo.Coordinate         `json:"location"`
}

func emptyResult() Result {
	return Result{
		Products:        []ranking.RankedProduct{},
		PickupLocations: []PickupLocation{},
		Farms:           []Farm{},
	}
}

// Service resolves a zip code and searches products, pickup locations and farms around it.
type Service struct {
	catalog  Reader
	geocoder maps.ZipGeocoder
	engine   *ranking.Engine
	opts     Options
	logg     *logger.Logger
	metrics  *metrics.DiscoveryMetrics
}

func NewService(reader Reader, geocoder maps.ZipGeocoder, engine *ranking.Engine, opts Options, logg *logger.Logger, m *metrics.DiscoveryMetrics) (*Service, error) {
	if reader == nil {
		return nil, errors.New("catalog reader is required")
	}
	if geocoder == nil {
		return nil, errors.New("geocoder is required")
	}
	if engine == nil {
		return nil, errors.New("ranking engine is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		catalog:  reader,
		geocoder: geocoder,
		engine:   engine,
		opts:     opts.withDefaults(),
		logg:     logg,
		metrics:  m,
	}, nil
}

// Search never fails. An unknown or malformed zip yields an empty result with no location,
// and each entity kind degrades to empty on its own when its query fails.
func (s *Service) Search(ctx context.Context, zip, query string) Result {
	zip = strings.TrimSpace(zip)
	ctx = s.logg.WithFields(ctx, map[string]any{"component": "search", "zip": zip})

	if !maps.IsValidZip(zip) {
		s.logg.Info(ctx, "search.invalid_zip")
		return emptyResult()
	}
	point, err := s.geocoder.GeocodeZip(ctx, zip)
	if err != nil {
		s.metrics.IncUpstreamFailure("geocoder")
		s.logg.WarnErr(ctx, "search.geocode_failed", err)
		return emptyResult()
	}
	if point == nil {
		s.logg.Info(ctx, "search.zip_not_found")
		return emptyResult()
	}

	origin := geo.Coordinate{Lat: point.Latitude, Lng: point.Longitude}
	shopper := &ranking.ShopperLocation{
		Coords:  &origin,
		Source:  enums.LocationSourceZipCode,
		ZipCode: zip,
	}

	result := emptyResult()
	result.Location = &origin

	var productErr, standErr, farmErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var products []ranking.RankedProduct
		products, productErr = s.searchProducts(gctx, shopper)
		if productErr == nil {
			result.Products = products
		}
		return nil
	})
	g.Go(func() error {
		var stands []PickupLocation
		stands, standErr = s.searchStands(gctx, origin)
		if standErr == nil {
			result.PickupLocations = stands
		}
		return nil
	})
	g.Go(func() error {
		var farms []Farm
		farms, farmErr = s.searchFarms(gctx, origin)
		if farmErr == nil {
			result.Farms = farms
		}
		return nil
	})
	_ = g.Wait()

	if err := multierr.Combine(
		kindError("products", productErr),
		kindError("pickup_locations", standErr),
		kindError("farms", farmErr),
	); err != nil {
		s.metrics.IncUpstreamFailure("catalog")
		s.logg.WarnErr(ctx, "search.partial_failure", err)
	}

	if terms := normalizeQuery(query); terms != "" {
		result.Products = filterProducts(result.Products, terms)
		result.PickupLocations = filterStands(result.PickupLocations, terms)
		result.Farms = filterFarms(result.Farms, terms)
	}
	return result
}

func kindError(kind string, err error) error {
	if err == nil {
		return nil
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search "+kind)
}

// searchProducts keeps products within the radius or deliverable to the zip, ranked by tier
// then distance without local/exploratory partitioning.
func (s *Service) searchProducts(ctx context.Context, shopper *ranking.ShopperLocation) ([]ranking.RankedProduct, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	products, err := s.catalog.FindActiveProducts(queryCtx, catalog.ActiveApproved(s.opts.ProductBatch))
	if err != nil {
		return nil, err
	}
	ranked := s.engine.RankUnpartitioned(products, shopper)
	kept := make([]ranking.RankedProduct, 0, len(ranked))
	for _, p := range ranked {
		withinRadius := p.NearestPickupDistanceKm != nil && *p.NearestPickupDistanceKm <= s.opts.RadiusKm
		if withinRadius || p.IsDeliveryEligible() {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

func (s *Service) searchStands(ctx context.Context, origin geo.Coordinate) ([]PickupLocation, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	stands, err := s.catalog.ListActiveStands(queryCtx, s.opts.EntityLimit)
	if err != nil {
		return nil, err
	}
	now := s.engine.Now()
	out := make([]PickupLocation, 0, len(stands))
	for _, stand := range stands {
		coord := geo.NewCoordinate(stand.Latitude, stand.Longitude)
		if coord == nil {
			continue
		}
		d := geo.DistanceKm(origin, *coord)
		if d > s.opts.RadiusKm {
			continue
		}
		var openNow *bool
		if len(stand.Hours) > 0 {
			open := stand.Hours.IsOpenAt(now)
			openNow = &open
		}
		var farmID *string
		if stand.FarmID != nil {
			id := stand.FarmID.String()
			farmID = &id
		}
		out = append(out, PickupLocation{
			ID:            stand.ID.String(),
			FarmID:        farmID,
			Name:          stand.Name,
			Description:   stand.Description,
			LocationName:  stand.LocationName,
			Coordinate:    *coord,
			Tags:          nonNil(stand.Tags),
			IsOpenNow:     openNow,
			DistanceKm:    geo.RoundKm(d, 2),
			DistanceMiles: geo.KmToMiles(d),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func (s *Service) searchFarms(ctx context.Context, origin geo.Coordinate) ([]Farm, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	farms, err := s.catalog.ListActiveFarms(queryCtx, s.opts.EntityLimit)
	if err != nil {
		return nil, err
	}
	out := make([]Farm, 0, len(farms))
	for _, farm := range farms {
		coord := geo.NewCoordinate(farm.Latitude, farm.Longitude)
		if coord == nil {
			continue
		}
		d := geo.DistanceKm(origin, *coord)
		if d > s.opts.RadiusKm {
			continue
		}
		out = append(out, Farm{
			ID:            farm.ID.String(),
			Name:          farm.Name,
			Description:   farm.Description,
			LocationName:  farm.LocationName,
			Coordinate:    *coord,
			Tags:          nonNil(farm.Tags),
			DistanceKm:    geo.RoundKm(d, 2),
			DistanceMiles: geo.KmToMiles(d),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
