package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrReferenceChanged = errors.New("payment intent reference is immutable")

// PaymentIntent correlates a host order with a processor-side payment intent.
// Reference is immutable once set. IntentData holds the last-fetched remote
// snapshot and is overwritten, never appended, on every reconciliation step;
// the remote status inside it is authoritative, no local status is kept.
//
// The composite unique index is a correctness requirement: it is what stops
// concurrent duplicate submissions for the same order from racing two rows
// into existence.
type PaymentIntent struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID    string         `json:"order_id" gorm:"type:varchar(64);not null;uniqueIndex:idx_intent_gateway_order_customer"`
	CustomerID snowflake.ID   `json:"customer_id" gorm:"not null;uniqueIndex:idx_intent_gateway_order_customer"`
	GatewayID  snowflake.ID   `json:"gateway_id" gorm:"not null;uniqueIndex:idx_intent_gateway_order_customer"`
	Reference  string         `json:"reference" gorm:"type:varchar(255);not null;index"`
	IntentData datatypes.JSON `json:"intent_data" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"not null"`
}

func (PaymentIntent) TableName() string { return "gateway_payment_intents" }
