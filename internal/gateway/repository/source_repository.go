package repository

import (
	"context"
	"errors"

	"github.com/loomcommerce/paygate/internal/gateway/domain"
	"gorm.io/gorm"
)

type sourceRepo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.SourceRepository {
	return &sourceRepo{db: db}
}

func (r *sourceRepo) Insert(ctx context.Context, db *gorm.DB, source *domain.PaymentSource) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).Create(source).Error
}

func (r *sourceRepo) FindByToken(ctx context.Context, db *gorm.DB, token string) (*domain.PaymentSource, error) {
	if db == nil {
		db = r.db
	}
	var source domain.PaymentSource
	if err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&source).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &source, nil
}

func (r *sourceRepo) ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.PaymentSource, error) {
	if db == nil {
		db = r.db
	}
	var sources []domain.PaymentSource
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *sourceRepo) DeleteByToken(ctx context.Context, db *gorm.DB, token string) error {
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&domain.PaymentSource{}).Error
}
