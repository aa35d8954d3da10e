package production

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

type ArticleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, articles []*types.Article) ([]*types.Article, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, articleIDs []uuid.UUID) ([]*types.Article, error)
	GetByOrderIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Article, error)
	GetByArticleNumbers(ctx context.Context, tx *gorm.DB, articleNumbers []string) ([]*types.Article, error)
	ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error)
	// UpdateLedgerCAS writes the whole ledger and its derived fields only when
	// the stored version still matches. Returns false on a lost race.
	UpdateLedgerCAS(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, expectedVersion int, ledger types.FloorLedger, currentFloor types.Floor, progress float64, status types.ArticleStatus) (bool, error)
	DeleteByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	repoLog := baseLog.With("repo", "ArticleRepo")
	return &articleRepo{db: db, log: repoLog}
}

func (ar *articleRepo) Create(ctx context.Context, tx *gorm.DB, articles []*types.Article) ([]*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	if len(articles) == 0 {
		return []*types.Article{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (ar *articleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, articleIDs []uuid.UUID) ([]*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Article
	if len(articleIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", articleIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *articleRepo) GetByOrderIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Article
	if len(orderIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *articleRepo) GetByArticleNumbers(ctx context.Context, tx *gorm.DB, articleNumbers []string) ([]*types.Article, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var results []*types.Article
	if len(articleNumbers) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("article_number IN ?", articleNumbers).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *articleRepo) ListIDs(ctx context.Context, tx *gorm.DB) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Article{}).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ar *articleRepo) UpdateLedgerCAS(ctx context.Context, tx *gorm.DB, articleID uuid.UUID, expectedVersion int, ledger types.FloorLedger, currentFloor types.Floor, progress float64, status types.ArticleStatus) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}

	res := transaction.WithContext(ctx).
		Model(&types.Article{}).
		Where("id = ? AND version = ?", articleID, expectedVersion).
		Updates(map[string]any{
			"floor_quantities": ledger,
			"current_floor":    currentFloor,
			"progress":         progress,
			"status":           status,
			"version":          gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (ar *articleRepo) DeleteByOrderID(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	return transaction.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&types.Article{}).Error
}
