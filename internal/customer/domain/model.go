package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/processor"
	"gorm.io/datatypes"
)

var (
	// ErrPersistence means the local record could not be saved after a
	// successful remote write. Local and remote state are inconsistent at
	// this point; the caller must surface it, never retry automatically.
	ErrPersistence = errors.New("customer record could not be saved")

	ErrNotFound = errors.New("customer not found")
)

// User is the host-side identity a customer record is keyed on.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Customer maps a host user + gateway to a processor-side customer record.
// One user has at most one Customer per gateway. Response caches the last
// remote snapshot; the processor stays authoritative.
type Customer struct {
	ID        snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID    string         `json:"user_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_customer_user_gateway"`
	GatewayID snowflake.ID   `json:"gateway_id" gorm:"not null;uniqueIndex:idx_customer_user_gateway"`
	Reference string         `json:"reference" gorm:"type:varchar(255);not null;index"`
	Response  datatypes.JSON `json:"response" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"not null"`
}

func (Customer) TableName() string { return "gateway_customers" }

// CreationPolicy builds the remote payload for a first-time customer create.
type CreationPolicy func(ctx context.Context, user User) (processor.CustomerParams, error)

// UpdatePolicy inspects an existing customer and returns the fields to push
// remotely, or nil when no remote update should happen. Opt-in: the default
// always returns nil, so resolving a known customer makes zero remote calls.
type UpdatePolicy func(ctx context.Context, customer *Customer) (*processor.CustomerParams, error)

func DefaultCreationPolicy() CreationPolicy {
	return func(ctx context.Context, user User) (processor.CustomerParams, error) {
		return processor.CustomerParams{
			Description: fmt.Sprintf("Customer for user %s", user.ID),
			Email:       user.Email,
		}, nil
	}
}

func DefaultUpdatePolicy() UpdatePolicy {
	return func(ctx context.Context, customer *Customer) (*processor.CustomerParams, error) {
		return nil, nil
	}
}
