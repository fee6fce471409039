package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
)

type OrderRepository interface {
	// Create inserts the order inside the caller's transaction. The unique
	// index on the provenance intent ref rejects a second order for the
	// same intent.
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByIntentRef(ctx context.Context, intentRef string) (*model.Order, error)
	// ExistsByIntentRef runs on the caller's transaction so it sees writes
	// made earlier in the same transaction.
	ExistsByIntentRef(ctx context.Context, tx *gorm.DB, intentRef string) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByIntentRef(ctx context.Context, intentRef string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("provenance_intent_ref = ?", intentRef).
		First(&order).Error
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ExistsByIntentRef(ctx context.Context, tx *gorm.DB, intentRef string) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).Model(&model.Order{}).
		Where("provenance_intent_ref = ?", intentRef).
		Count(&count).Error

	return count > 0, err
}
