package home

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angelmondragon/farmstand-backend/internal/catalog"
	"github.com/angelmondragon/farmstand-backend/internal/ranking"
	"github.com/angelmondragon/farmstand-backend/pkg/config"
	"github.com/angelmondragon/farmstand-backend/pkg/db/models"
	"github.com/angelmondragon/farmstand-backend/pkg/enums"
	"github.com/angelmondragon/farmstand-backend/pkg/logger"
	"github.com/angelmondragon/farmstand-backend/pkg/metrics"
)

// SnapshotName identifies the shopper-independent home listing in the cache.
const SnapshotName = "home"

// ProductReader loads active catalog products.
type ProductReader interface {
	FindActiveProducts(ctx context.Context, filter catalog.ProductFilter) ([]models.Product, error)
}

// Cache is the best-effort key/value store holding the home snapshot.
type Cache interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	SnapshotKey(name string) string
}

// Options tunes the fallback chain.
type Options struct {
	PageSize               int
	GeoBatchSize           int
	SnapshotTTL            time.Duration
	CacheReadTimeout       time.Duration
	LiveQueryTimeout       time.Duration
	BackgroundWriteTimeout time.Duration
}

// OptionsFromConfig maps discovery config onto service options.
func OptionsFromConfig(cfg config.DiscoveryConfig) Options {
	return Options{
		PageSize:               cfg.HomePageSize,
		GeoBatchSize:           cfg.GeoBatchSize,
		SnapshotTTL:            cfg.SnapshotTTL,
		CacheReadTimeout:       cfg.CacheReadTimeout,
		LiveQueryTimeout:       cfg.LiveQueryTimeout,
		BackgroundWriteTimeout: cfg.BackgroundWriteTime,
	}
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 20
	}
	if o.GeoBatchSize <= 0 {
		o.GeoBatchSize = 100
	}
	if o.SnapshotTTL <= 0 {
		o.SnapshotTTL = time.Hour
	}
	if o.CacheReadTimeout <= 0 {
		o.CacheReadTimeout = 150 * time.Millisecond
	}
	if o.LiveQueryTimeout <= 0 {
		o.LiveQueryTimeout = 5 * time.Second
	}
	if o.BackgroundWriteTimeout <= 0 {
		o.BackgroundWriteTimeout = 2 * time.Second
	}
	return o
}

// Query is one home listing request.
type Query struct {
	Shopper *ranking.ShopperLocation
	Page    enums.PageKind
	Cursor  string
}

// Result is the ranked listing plus the tier that produced it.
type Result struct {
	Products   []ranking.RankedProduct `json:"products"`
	Source     string                  `json:"source"`
	NextCursor string                  `json:"next_cursor,omitempty"`
}

// Service serves the home listing through geo query, cached snapshot and live query tiers.
type Service struct {
	catalog ProductReader
	cache   Cache
	engine  *ranking.Engine
	opts    Options
	logg    *logger.Logger
	metrics *metrics.DiscoveryMetrics

	live   singleflight.Group
	writes sync.WaitGroup
}

// NewService wires the fallback chain. cache and m may be nil.
func NewService(reader ProductReader, cache Cache, engine *ranking.Engine, opts Options, logg *logger.Logger, m *metrics.DiscoveryMetrics) (*Service, error) {
	if reader == nil {
		return nil, errors.New("catalog reader is required")
	}
	if engine == nil {
		return nil, errors.New("ranking engine is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		catalog: reader,
		cache:   cache,
		engine:  engine,
		opts:    opts.withDefaults(),
		logg:    logg,
		metrics: m,
	}, nil
}

// GetHomeProducts never fails; every upstream fault degrades to the next tier or to an
// empty listing.
func (s *Service) GetHomeProducts(ctx context.Context, q Query) Result {
	ctx = s.logg.WithComponent(ctx, "home")
	if q.Page == "" {
		q.Page = enums.PageKindInitial
	}

	if q.Shopper.HasCoords() {
		if result, ok := s.fromGeo(ctx, q); ok {
			s.metrics.IncHomeSource(metrics.HomeSourceGeo)
			return result
		}
	}

	if cached := s.readSnapshot(ctx); len(cached) > 0 {
		s.metrics.IncHomeSource(metrics.HomeSourceCache)
		return Result{Products: cached, Source: metrics.HomeSourceCache}
	}

	live, err := s.liveQuery(ctx)
	if err != nil {
		s.metrics.IncUpstreamFailure("catalog")
		s.logg.WarnErr(ctx, "home.live_query_failed", err)
		s.metrics.IncHomeSource(metrics.HomeSourceEmpty)
		return Result{Products: []ranking.RankedProduct{}, Source: metrics.HomeSourceEmpty}
	}
	if len(live) > 0 {
		s.writeSnapshotAsync(ctx, live)
	}
	s.metrics.IncHomeSource(metrics.HomeSourceLive)
	return Result{Products: live, Source: metrics.HomeSourceLive}
}

// fromGeo reports ok=false when the chain should fall through to the snapshot.
func (s *Service) fromGeo(ctx context.Context, q Query) (Result, bool) {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.LiveQueryTimeout)
	defer cancel()

	filter := catalog.ActiveApproved(s.opts.GeoBatchSize)
	filter.Cursor = q.Cursor
	products, err := s.catalog.FindActiveProducts(queryCtx, filter)
	if err != nil {
		s.metrics.IncUpstreamFailure("catalog")
		s.logg.WarnErr(ctx, "home.geo_query_failed", err)
		return Result{}, false
	}

	ranked := s.engine.Rank(products, q.Shopper, q.Page)
	if len(ranked) == 0 && q.Page == enums.PageKindInitial {
		return Result{}, false
	}
	return Result{
		Products:   ranked,
		Source:     metrics.HomeSourceGeo,
		NextCursor: catalog.NextCursor(products, s.opts.GeoBatchSize),
	}, true
}

func (s *Service) readSnapshot(ctx context.Context) []ranking.RankedProduct {
	if s.cache == nil {
		return nil
	}
	readCtx, cancel := context.WithTimeout(ctx, s.opts.CacheReadTimeout)
	defer cancel()

	payload, err := s.cache.GetBytes(readCtx, s.cache.SnapshotKey(SnapshotName))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(readCtx.Err(), context.DeadlineExceeded) {
			s.metrics.IncSnapshotCache(metrics.CacheTimeout)
			s.logg.Warn(ctx, "home.snapshot_read_timeout")
		} else {
			s.metrics.IncSnapshotCache(metrics.CacheError)
			s.logg.WarnErr(ctx, "home.snapshot_read_failed", err)
		}
		return nil
	}
	if len(payload) == 0 {
		s.metrics.IncSnapshotCache(metrics.CacheMiss)
		return nil
	}

	var products []ranking.RankedProduct
	if err := json.Unmarshal(payload, &products); err != nil {
		s.metrics.IncSnapshotCache(metrics.CacheError)
		s.logg.WarnErr(ctx, "home.snapshot_decode_failed", err)
		return nil
	}
	if len(products) == 0 {
		s.metrics.IncSnapshotCache(metrics.CacheMiss)
		return nil
	}
	s.metrics.IncSnapshotCache(metrics.CacheHit)
	return products
}

// liveQuery coalesces concurrent cache misses into one catalog query. The shared query
// runs detached from any single caller and is bounded by LiveQueryTimeout; each caller
// still stops waiting when its own context ends.
func (s *Service) liveQuery(ctx context.Context) ([]ranking.RankedProduct, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.live.DoChan(SnapshotName, func() (any, error) {
		return s.queryLive(detached)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]ranking.RankedProduct), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) queryLive(ctx context.Context) ([]ranking.RankedProduct, error) {
	queryCtx, cancel := context.WithTimeout(ctx, s.opts.LiveQueryTimeout)
	defer cancel()

	products, err := s.catalog.FindActiveProducts(queryCtx, catalog.ActiveApproved(s.opts.PageSize))
	if err != nil {
		return nil, err
	}
	return s.engine.RankUnpartitioned(products, nil), nil
}

// writeSnapshotAsync stores products without blocking the caller. The write outlives the
// request context and failures are only logged.
func (s *Service) writeSnapshotAsync(ctx context.Context, products []ranking.RankedProduct) {
	if s.cache == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		writeCtx, cancel := context.WithTimeout(detached, s.opts.BackgroundWriteTimeout)
		defer cancel()
		if err := s.writeSnapshot(writeCtx, products); err != nil {
			s.logg.WarnErr(detached, "home.snapshot_write_failed", err)
		}
	}()
}

func (s *Service) writeSnapshot(ctx context.Context, products []ranking.RankedProduct) error {
	payload, err := json.Marshal(products)
	if err == nil {
		err = s.cache.SetBytes(ctx, s.cache.SnapshotKey(SnapshotName), payload, s.opts.SnapshotTTL)
	}
	s.metrics.IncSnapshotWrite(err)
	return err
}

// RefreshSnapshot recomputes the shopper-independent listing and overwrites the cached copy.
// It returns the number of products written.
func (s *Service) RefreshSnapshot(ctx context.Context) (int, error) {
	if s.cache == nil {
		return 0, errors.New("snapshot cache not configured")
	}
	products, err := s.queryLive(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.writeSnapshot(ctx, products); err != nil {
		return 0, err
	}
	return len(products), nil
}

// Wait blocks until pending background snapshot writes finish.
func (s *Service) Wait() {
	s.writes.Wait()
}
