package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/clock"
	"github.com/loomcommerce/paygate/internal/intent/domain"
	"gorm.io/gorm"
)

type intentStore struct {
	db    *gorm.DB
	genID *snowflake.Node
	clock clock.Clock
}

func Provide(db *gorm.DB, genID *snowflake.Node, clk clock.Clock) domain.Store {
	return &intentStore{db: db, genID: genID, clock: clk}
}

func (r *intentStore) Save(ctx context.Context, db *gorm.DB, intent *domain.PaymentIntent) (*domain.PaymentIntent, error) {
	if db == nil {
		db = r.db
	}
	now := r.clock.Now(ctx)
	intent.UpdatedAt = now

	if intent.ID == 0 {
		intent.ID = r.genID.Generate()
		intent.CreatedAt = now
		if err := db.WithContext(ctx).Create(intent).Error; err != nil {
			return nil, err
		}
		return intent, nil
	}

	var existing domain.PaymentIntent
	if err := db.WithContext(ctx).First(&existing, intent.ID).Error; err != nil {
		return nil, err
	}
	if existing.Reference != "" && existing.Reference != intent.Reference {
		return nil, domain.ErrReferenceChanged
	}

	if err := db.WithContext(ctx).Save(intent).Error; err != nil {
		return nil, err
	}
	return intent, nil
}

func (r *intentStore) Find(ctx context.Context, db *gorm.DB, gatewayID snowflake.ID, orderID string, customerID snowflake.ID) (*domain.PaymentIntent, error) {
	if db == nil {
		db = r.db
	}
	var intent domain.PaymentIntent
	if err := db.WithContext(ctx).
		Where("gateway_id = ? AND order_id = ? AND customer_id = ?", gatewayID, orderID, customerID).
		First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

func (r *intentStore) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.PaymentIntent, error) {
	if db == nil {
		db = r.db
	}
	var intent domain.PaymentIntent
	if err := db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}
