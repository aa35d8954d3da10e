package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	prodrepos "github.com/knitworks/floortrack-backend/internal/data/repos/production"
	"github.com/knitworks/floortrack-backend/internal/data/txn"
	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

const statsCacheKey = "floortrack:stats:floors"

// FloorStat aggregates one floor across all articles: the current ledger
// counters plus the event activity inside the queried window.
type FloorStat struct {
	Floor        types.Floor `json:"floor"`
	Received     int         `json:"received"`
	Completed    int         `json:"completed"`
	Transferred  int         `json:"transferred"`
	Remaining    int         `json:"remaining"`
	M1Quantity   int         `json:"m1Quantity,omitempty"`
	M2Quantity   int         `json:"m2Quantity,omitempty"`
	M3Quantity   int         `json:"m3Quantity,omitempty"`
	M4Quantity   int         `json:"m4Quantity,omitempty"`
	ArticleCount int         `json:"articleCount"`
	EventCount   int64       `json:"eventCount"`

	// Quantities moved during the queried window, summed from floor events.
	WindowReceived    int `json:"windowReceived,omitempty"`
	WindowCompleted   int `json:"windowCompleted,omitempty"`
	WindowTransferred int `json:"windowTransferred,omitempty"`
	WindowRepaired    int `json:"windowRepaired,omitempty"`
}

// FloorStatistics is the dashboard read model: one aggregate per floor in
// canonical floor order, plus totals over all articles.
type FloorStatistics struct {
	Floors         []FloorStat `json:"floors"`
	TotalArticles  int         `json:"totalArticles"`
	CompletedCount int         `json:"completedCount"`
	CorruptedCount int         `json:"corruptedCount"`
	From           *time.Time  `json:"from,omitempty"`
	To             *time.Time  `json:"to,omitempty"`
	GeneratedAt    time.Time   `json:"generatedAt"`
}

type StatsService interface {
	FloorStatistics(ctx context.Context, floor *types.Floor, from, to *time.Time) (*FloorStatistics, error)
	Invalidate(ctx context.Context)
}

type statsService struct {
	log         *logger.Logger
	articleRepo prodrepos.ArticleRepo
	orderRepo   prodrepos.OrderRepo
	productRepo prodrepos.ProductRepo
	eventRepo   prodrepos.FloorEventRepo
	rdb         *goredis.Client
	cacheTTL    time.Duration
}

// NewStatsService builds the statistics read side. rdb may be nil, in which
// case every call recomputes from the database.
func NewStatsService(
	log *logger.Logger,
	articleRepo prodrepos.ArticleRepo,
	orderRepo prodrepos.OrderRepo,
	productRepo prodrepos.ProductRepo,
	eventRepo prodrepos.FloorEventRepo,
	rdb *goredis.Client,
	cacheTTL time.Duration,
) StatsService {
	return &statsService{
		log:         log.With("service", "StatsService"),
		articleRepo: articleRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		eventRepo:   eventRepo,
		rdb:         rdb,
		cacheTTL:    cacheTTL,
	}
}

// FloorStatistics aggregates ledgers and event activity. floor, from and to
// are optional filters; only the unfiltered result is cached.
func (s *statsService) FloorStatistics(ctx context.Context, floor *types.Floor, from, to *time.Time) (*FloorStatistics, error) {
	const op = "stats.floor_statistics"

	filtered := floor != nil || from != nil || to != nil
	if !filtered {
		if cached := s.fromCache(ctx); cached != nil {
			return cached, nil
		}
	}

	orders, err := s.orderRepo.List(ctx, nil)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	orderIDs := make([]uuid.UUID, 0, len(orders))
	flows := make(map[uuid.UUID]types.Flow, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
		products, err := s.productRepo.GetByFactoryCodes(ctx, nil, []string{o.FactoryCode})
		if err != nil {
			return nil, txn.MapError(op, err)
		}
		if len(products) == 0 {
			continue
		}
		flow, err := types.ResolveFlow(products[0])
		if err != nil {
			continue
		}
		flows[o.ID] = flow
	}

	articles, err := s.articleRepo.GetByOrderIDs(ctx, nil, orderIDs)
	if err != nil {
		return nil, txn.MapError(op, err)
	}
	activity, err := s.eventRepo.AggregateActivity(ctx, nil, floor, from, to)
	if err != nil {
		return nil, txn.MapError(op, err)
	}

	byFloor := make(map[types.Floor]*FloorStat, len(types.AllFloors))
	ensure := func(f types.Floor) *FloorStat {
		fs := byFloor[f]
		if fs == nil {
			fs = &FloorStat{Floor: f}
			byFloor[f] = fs
		}
		return fs
	}

	stats := &FloorStatistics{From: from, To: to, GeneratedAt: time.Now().UTC()}
	for _, a := range articles {
		stats.TotalArticles++
		if a.Status == types.StatusCompleted || a.Status == types.StatusQualityConfirmed {
			stats.CompletedCount++
		}
		flow, ok := flows[a.OrderID]
		if ok && len(types.DetectViolations(a.FloorLedger, flow)) > 0 {
			stats.CorruptedCount++
		}
		for f, b := range a.FloorLedger {
			if floor != nil && f != *floor {
				continue
			}
			fs := ensure(f)
			fs.Received += b.Received
			fs.Completed += b.Completed
			fs.Transferred += b.Transferred
			fs.Remaining += b.Remaining
			fs.M1Quantity += b.M1Quantity
			fs.M2Quantity += b.M2Quantity
			fs.M3Quantity += b.M3Quantity
			fs.M4Quantity += b.M4Quantity
			if !b.IsZero() {
				fs.ArticleCount++
			}
		}
	}

	for _, row := range activity {
		fs := ensure(row.Floor)
		fs.EventCount += row.Events
		switch row.Kind {
		case types.EventReceive:
			fs.WindowReceived += row.Quantity
		case types.EventComplete:
			fs.WindowCompleted += row.Quantity
		case types.EventTransfer:
			fs.WindowTransferred += row.Quantity
		case types.EventRepair:
			fs.WindowRepaired += row.Quantity
		}
	}

	for _, f := range types.AllFloors {
		if floor != nil && f != *floor {
			continue
		}
		fs := byFloor[f]
		if fs == nil {
			continue
		}
		stats.Floors = append(stats.Floors, *fs)
	}

	if !filtered {
		s.toCache(ctx, stats)
	}
	return stats, nil
}

func (s *statsService) Invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, statsCacheKey).Err(); err != nil {
		s.log.Warn("failed to invalidate stats cache", "error", err)
	}
}

func (s *statsService) fromCache(ctx context.Context) *FloorStatistics {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return nil
	}
	raw, err := s.rdb.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		if err != goredis.Nil {
			s.log.Warn("stats cache read failed", "error", err)
		}
		return nil
	}
	var stats FloorStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		s.log.Warn("bad stats cache payload", "error", err)
		return nil
	}
	return &stats
}

func (s *statsService) toCache(ctx context.Context, stats *FloorStatistics) {
	if s.rdb == nil || s.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, statsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.log.Warn("stats cache write failed", "error", err)
	}
}
