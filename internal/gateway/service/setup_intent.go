package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/config"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	"github.com/loomcommerce/paygate/internal/processor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type SetupFlowParams struct {
	fx.In

	Log       *zap.Logger
	Config    config.Config
	Processor *processor.Client
	Customers customerdomain.Directory
	Sources   domain.SourceService
}

type SetupFlowImpl struct {
	log       *zap.Logger
	cfg       config.Config
	processor *processor.Client
	customers customerdomain.Directory
	sources   domain.SourceService
	gatewayID snowflake.ID
}

func NewSetupFlow(p SetupFlowParams) domain.SetupFlow {
	return &SetupFlowImpl{
		log:       p.Log.Named("setup_intent"),
		cfg:       p.Config,
		processor: p.Processor,
		customers: p.Customers,
		sources:   p.Sources,
		gatewayID: snowflake.ID(p.Config.Gateway.ID),
	}
}

// Create starts a confirmed setup intent for the tokenized method. When the
// intent succeeds inline the method is saved immediately; when the payer must
// authenticate first, the caller gets the redirect URL and no source yet.
func (s *SetupFlowImpl) Create(ctx context.Context, user customerdomain.User, paymentMethodToken, returnURL string) (*domain.SetupIntentResult, error) {
	customer, err := s.customers.Resolve(ctx, s.gatewayID, user)
	if err != nil {
		return nil, err
	}

	if returnURL == "" {
		returnURL = s.cfg.Gateway.SetupReturnURL
	}
	intent, err := s.processor.CreateSetupIntent(ctx, processor.SetupIntentParams{
		Customer:      customer.Reference,
		PaymentMethod: paymentMethodToken,
		Confirm:       true,
		ReturnURL:     returnURL,
	})
	if err != nil {
		return nil, err
	}
	return s.result(ctx, user, intent, paymentMethodToken)
}

// Confirm reconciles a setup intent after the payer returns from an off-site
// authentication step. An empty ID means the payer arrived without a pending
// intent; that yields an empty result, not an error.
func (s *SetupFlowImpl) Confirm(ctx context.Context, user customerdomain.User, setupIntentID string) (*domain.SetupIntentResult, error) {
	if setupIntentID == "" {
		return &domain.SetupIntentResult{}, nil
	}
	intent, err := s.processor.RetrieveSetupIntent(ctx, setupIntentID)
	if err != nil {
		return nil, err
	}
	return s.result(ctx, user, intent, intent.PaymentMethod)
}

// result snapshots the intent with its client secret stripped and, on
// terminal success only, persists the payment method as a saved source.
func (s *SetupFlowImpl) result(ctx context.Context, user customerdomain.User, intent *processor.SetupIntent, token string) (*domain.SetupIntentResult, error) {
	out := &domain.SetupIntentResult{
		SetupIntent: datatypes.JSON(processor.Redact(intent.Raw, "client_secret")),
		Status:      intent.Status,
	}
	if intent.Status == processor.StatusRequiresAction && intent.NextAction != nil {
		out.RedirectURL = intent.NextAction.RedirectToURL.URL
	}
	if intent.Status != processor.StatusSucceeded || token == "" {
		return out, nil
	}

	source, err := s.sources.Create(ctx, user, domain.PaymentForm{PaymentMethodID: token})
	if err != nil {
		return nil, err
	}
	out.PaymentSource = source
	return out, nil
}
