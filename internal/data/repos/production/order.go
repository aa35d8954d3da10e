package production

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/knitworks/floortrack-backend/internal/domain/production"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
)

type OrderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, orders []*types.Order) ([]*types.Order, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Order, error)
	GetByOrderNumbers(ctx context.Context, tx *gorm.DB, orderNumbers []string) ([]*types.Order, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Order, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status types.OrderStatus) error
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	repoLog := baseLog.With("repo", "OrderRepo")
	return &orderRepo{db: db, log: repoLog}
}

func (or *orderRepo) Create(ctx context.Context, tx *gorm.DB, orders []*types.Order) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}

	if len(orders) == 0 {
		return []*types.Order{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (or *orderRepo) GetByIDs(ctx context.Context, tx *gorm.DB, orderIDs []uuid.UUID) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}

	var results []*types.Order
	if len(orderIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", orderIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *orderRepo) GetByOrderNumbers(ctx context.Context, tx *gorm.DB, orderNumbers []string) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}

	var results []*types.Order
	if len(orderNumbers) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("order_number IN ?", orderNumbers).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *orderRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Order, error) {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}

	var results []*types.Order
	if err := transaction.WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (or *orderRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, status types.OrderStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = or.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}
