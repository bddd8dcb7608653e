package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	// ErrUnsupportedCurrency is a fatal precondition: no remote call may have
	// been made when it is returned.
	ErrUnsupportedCurrency = errors.New("currency not supported by gateway")

	// ErrNoPaymentSource means the user has no saved payment method to
	// subscribe with.
	ErrNoPaymentSource = errors.New("no payment sources are saved to use for subscriptions")

	// ErrSubscription hides the processor's original error from the caller;
	// the original text is logged, never exposed.
	ErrSubscription = errors.New("unable to subscribe at this time")

	// ErrPaymentSource wraps processor rejections of payment-method
	// attach/detach operations.
	ErrPaymentSource = errors.New("payment source operation failed")
)

// Transaction is the host-owned payment context for a single operation.
// Amount is in major units; Hash is the stable idempotency token the
// processor deduplicates create/update calls on. Reference equals the
// processor-side intent identifier once an intent exists.
type Transaction struct {
	ID        string  `json:"id"`
	OrderID   string  `json:"order_id"`
	Hash      string  `json:"hash"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Reference string  `json:"reference"`
}

// PaymentForm carries the client-side tokenized payment method, and
// optionally an explicit processor customer reference.
type PaymentForm struct {
	PaymentMethodID string `json:"payment_method_id"`
	Customer        string `json:"customer"`
}

type Plan struct {
	Reference string `json:"reference"`
}

type SubscriptionForm struct {
	TrialDays *int `json:"trial_days"`
}

// PaymentSource is a locally stored reference to a reusable payment method.
// Rows are created only after the remote intent reaches terminal success.
type PaymentSource struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	UserID      string         `json:"user_id" gorm:"type:varchar(64);not null;index"`
	GatewayID   snowflake.ID   `json:"gateway_id" gorm:"not null;uniqueIndex:idx_source_gateway_token"`
	Token       string         `json:"token" gorm:"type:varchar(255);not null;uniqueIndex:idx_source_gateway_token"`
	Description string         `json:"description" gorm:"type:varchar(255)"`
	Response    datatypes.JSON `json:"response" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"created_at" gorm:"not null"`
}

func (PaymentSource) TableName() string { return "gateway_payment_sources" }

// PaymentResponse is the structured outcome handed back to the host. Exactly
// one of Success, Processing, RedirectURL or Message is meaningful: terminal
// success, still in flight, client action required, or terminal failure.
type PaymentResponse struct {
	Success     bool           `json:"success"`
	Processing  bool           `json:"processing"`
	RedirectURL string         `json:"redirect_url,omitempty"`
	Reference   string         `json:"reference,omitempty"`
	Message     string         `json:"message,omitempty"`
	Code        string         `json:"code,omitempty"`
	Data        datatypes.JSON `json:"data,omitempty"`
}

type SubscriptionResponse struct {
	Reference string         `json:"reference"`
	Status    string         `json:"status"`
	TrialEnd  *time.Time     `json:"trial_end,omitempty"`
	PeriodEnd *time.Time     `json:"period_end,omitempty"`
	Data      datatypes.JSON `json:"data,omitempty"`
}

// SetupIntentResult is what the save-a-card flow returns. PaymentSource is
// nil until the remote setup intent reaches terminal success; RedirectURL is
// set when the payer must complete an authentication challenge first. The
// SetupIntent snapshot is always redacted of its client secret.
type SetupIntentResult struct {
	SetupIntent   datatypes.JSON `json:"setup_intent,omitempty"`
	Status        string         `json:"status,omitempty"`
	RedirectURL   string         `json:"redirect_url,omitempty"`
	PaymentSource *PaymentSource `json:"payment_source,omitempty"`
}
