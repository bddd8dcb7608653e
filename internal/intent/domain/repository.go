package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Store persists payment-intent correlation rows. Save is an idempotent
// upsert keyed by the local ID: an unsaved row gets an ID assigned, a saved
// row is overwritten in place. No remote calls happen here.
type Store interface {
	Save(ctx context.Context, db *gorm.DB, intent *PaymentIntent) (*PaymentIntent, error)
	Find(ctx context.Context, db *gorm.DB, gatewayID snowflake.ID, orderID string, customerID snowflake.ID) (*PaymentIntent, error)
	FindByReference(ctx context.Context, db *gorm.DB, reference string) (*PaymentIntent, error)
}
