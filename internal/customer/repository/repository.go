package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/customer/domain"
	"gorm.io/gorm"
)

type customerRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &customerRepo{db: db}
}

func (r *customerRepo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepo) Update(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepo) FindByUserAndGateway(ctx context.Context, db *gorm.DB, userID string, gatewayID snowflake.ID) (*domain.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customer domain.Customer
	if err := db.WithContext(ctx).
		Where("user_id = ? AND gateway_id = ?", userID, gatewayID).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customer domain.Customer
	if err := db.WithContext(ctx).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) FindByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Customer, error) {
	if db == nil {
		db = r.db
	}
	var customer domain.Customer
	if err := db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Delete(&domain.Customer{}, id).Error
}
