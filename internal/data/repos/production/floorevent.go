package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

// FloorActivity is one floor/kind aggregation row over the event log.
type FloorActivity struct {
	Floor    types.Floor
	Kind     types.EventKind
	Quantity int
	Events   int64
	Articles int64
}

type FloorEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, events []*types.FloorEvent) ([]*types.FloorEvent, error)
	ListByArticleID(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, limit int) ([]*types.FloorEvent, error)
	ListByKind(ctx context.Context, tx *gorm.DB, kind types.EventKind, limit int) ([]*types.FloorEvent, error)
	AggregateActivity(ctx context.Context, tx *gorm.DB, floor *types.Floor, from, to *time.Time) ([]FloorActivity, error)
}

type floorEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFloorEventRepo(db *gorm.DB, baseLog *logger.Logger) FloorEventRepo {
	repoLog := baseLog.With("repo", "FloorEventRepo")
	return &floorEventRepo{db: db, log: repoLog}
}

func (fr *floorEventRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.FloorEvent) ([]*types.FloorEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	if len(events) == 0 {
		return []*types.FloorEvent{}, nil
	}

	for _, ev := range events {
		if ev.ID == uuid.Nil {
			ev.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (fr *floorEventRepo) ListByArticleID(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, limit int) ([]*types.FloorEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	query := transaction.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.FloorEvent
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (fr *floorEventRepo) ListByKind(ctx context.Context, tx *gorm.DB, kind types.EventKind, limit int) ([]*types.FloorEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	query := transaction.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*types.FloorEvent
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// AggregateActivity sums event quantities per floor and kind. All filters are
// optional; from is inclusive and to is exclusive.
func (fr *floorEventRepo) AggregateActivity(ctx context.Context, tx *gorm.DB, floor *types.Floor, from, to *time.Time) ([]FloorActivity, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}

	query := transaction.WithContext(ctx).
		Model(&types.FloorEvent{}).
		Select("floor, kind, COALESCE(SUM(quantity), 0) AS quantity, COUNT(*) AS events, COUNT(DISTINCT article_id) AS articles").
		Group("floor").
		Group("kind")
	if floor != nil {
		query = query.Where("floor = ?", *floor)
	}
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at < ?", *to)
	}

	var rows []FloorActivity
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
