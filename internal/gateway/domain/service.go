package domain

import (
	"context"
	"net/url"

	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"gorm.io/gorm"
)

// Orchestrator drives the payment-intent lifecycle against the processor.
// Remote faults are folded into the returned PaymentResponse; only local
// persistence failures and violated preconditions come back as errors.
type Orchestrator interface {
	AuthorizeOrPurchase(ctx context.Context, tx Transaction, form PaymentForm, user *customerdomain.User, capture bool) (*PaymentResponse, error)
	Capture(ctx context.Context, tx Transaction, reference string) (*PaymentResponse, error)
	Refund(ctx context.Context, tx Transaction) (*PaymentResponse, error)
	CompletePayment(ctx context.Context, tx Transaction) (*PaymentResponse, error)
	Subscribe(ctx context.Context, user customerdomain.User, plan Plan, form SubscriptionForm) (*SubscriptionResponse, error)
}

// SourceService manages saved payment methods. Delete is best-effort: a
// processor rejection of the detach is treated as already-deleted.
type SourceService interface {
	Create(ctx context.Context, user customerdomain.User, form PaymentForm) (*PaymentSource, error)
	Delete(ctx context.Context, token string) error
	ListByUser(ctx context.Context, userID string) ([]PaymentSource, error)
}

// SetupFlow saves a reusable payment method without charging it.
type SetupFlow interface {
	Create(ctx context.Context, user customerdomain.User, paymentMethodToken, returnURL string) (*SetupIntentResult, error)
	Confirm(ctx context.Context, user customerdomain.User, setupIntentID string) (*SetupIntentResult, error)
}

// SubscriptionPayloadPolicy lets collaborators augment the subscription
// create payload before it is sent. The default is the identity function.
type SubscriptionPayloadPolicy func(ctx context.Context, form url.Values) (url.Values, error)

func DefaultSubscriptionPayloadPolicy() SubscriptionPayloadPolicy {
	return func(ctx context.Context, form url.Values) (url.Values, error) {
		return form, nil
	}
}

type SourceRepository interface {
	Insert(ctx context.Context, db *gorm.DB, source *PaymentSource) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*PaymentSource, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID string) ([]PaymentSource, error)
	DeleteByToken(ctx context.Context, db *gorm.DB, token string) error
}
