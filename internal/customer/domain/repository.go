package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	Update(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByUserAndGateway(ctx context.Context, db *gorm.DB, userID string, gatewayID snowflake.ID) (*Customer, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*Customer, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
