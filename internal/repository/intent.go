package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/npkcode00-bit/food-delivery-sub000/internal/model"
)

// ErrValidation wraps intent-creation input failures.
var ErrValidation = errors.New("intent validation")

type IntentRepository interface {
	Create(ctx context.Context, intent *model.Intent) error
	Get(ctx context.Context, id string) (*model.Intent, error)
	FindBySessionRef(ctx context.Context, sessionRef string) (*model.Intent, error)
	SetSessionRef(ctx context.Context, id, sessionRef string) error
	// MarkPaid flips the intent to paid inside the caller's transaction.
	// Marking an already-paid intent is a no-op, not an error.
	MarkPaid(ctx context.Context, tx *gorm.DB, id string) (*model.Intent, error)
	// MarkCanceled cancels an open intent. Paid and already-canceled
	// intents are left untouched.
	MarkCanceled(ctx context.Context, id string) (*model.Intent, error)
}

type intentRepoImpl struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepoImpl{db: db}
}

func (r *intentRepoImpl) Create(ctx context.Context, intent *model.Intent) error {
	if intent.OwnerEmail == "" {
		return fmt.Errorf("%w: owner identity is required", ErrValidation)
	}
	if len(intent.Items) == 0 {
		return fmt.Errorf("%w: at least one line item is required", ErrValidation)
	}

	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	if intent.Status == "" {
		intent.Status = model.IntentStatusOpen
	}

	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *intentRepoImpl) Get(ctx context.Context, id string) (*model.Intent, error) {
	var intent model.Intent
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&intent).Error
	if err != nil {
		return nil, err
	}

	return &intent, nil
}

func (r *intentRepoImpl) FindBySessionRef(ctx context.Context, sessionRef string) (*model.Intent, error) {
	// empty refs must never match the intents still waiting for one
	if sessionRef == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var intent model.Intent
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("provider_session_ref = ?", sessionRef).
		First(&intent).Error
	if err != nil {
		return nil, err
	}

	return &intent, nil
}

func (r *intentRepoImpl) SetSessionRef(ctx context.Context, id, sessionRef string) error {
	return r.db.WithContext(ctx).Model(&model.Intent{}).
		Where("id = ?", id).
		Update("provider_session_ref", sessionRef).Error
}

func (r *intentRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, id string) (*model.Intent, error) {
	result := tx.WithContext(ctx).Model(&model.Intent{}).
		Where("id = ? AND status <> ?", id, model.IntentStatusPaid).
		Update("status", model.IntentStatusPaid)
	if result.Error != nil {
		return nil, result.Error
	}

	var intent model.Intent
	if err := tx.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&intent).Error; err != nil {
		return nil, err
	}

	return &intent, nil
}

func (r *intentRepoImpl) MarkCanceled(ctx context.Context, id string) (*model.Intent, error) {
	result := r.db.WithContext(ctx).Model(&model.Intent{}).
		Where("id = ? AND status = ?", id, model.IntentStatusOpen).
		Update("status", model.IntentStatusCanceled)
	if result.Error != nil {
		return nil, result.Error
	}

	var intent model.Intent
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&intent).Error; err != nil {
		return nil, err
	}

	return &intent, nil
}
