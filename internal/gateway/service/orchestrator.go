package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/config"
	"github.com/loomcommerce/paygate/internal/currency"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	intentdomain "github.com/loomcommerce/paygate/internal/intent/domain"
	"github.com/loomcommerce/paygate/internal/processor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrchestratorParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	Processor *processor.Client
	Customers customerdomain.Directory
	Intents   intentdomain.Store
	Policy    domain.SubscriptionPayloadPolicy
}

type OrchestratorImpl struct {
	db        *gorm.DB
	log       *zap.Logger
	cfg       config.Config
	processor *processor.Client
	customers customerdomain.Directory
	intents   intentdomain.Store
	policy    domain.SubscriptionPayloadPolicy
	gatewayID snowflake.ID
}

func NewOrchestrator(p OrchestratorParams) domain.Orchestrator {
	return &OrchestratorImpl{
		db:        p.DB,
		log:       p.Log.Named("gateway"),
		cfg:       p.Config,
		processor: p.Processor,
		customers: p.Customers,
		intents:   p.Intents,
		policy:    p.Policy,
		gatewayID: snowflake.ID(p.Config.Gateway.ID),
	}
}

// AuthorizeOrPurchase runs the full intent lifecycle for a checkout: resolve
// the customer, create or update the remote intent, snapshot it locally, then
// confirm. The local snapshot is written before the confirm call so a crash
// mid-confirmation still leaves the correlation row behind.
func (s *OrchestratorImpl) AuthorizeOrPurchase(ctx context.Context, tx domain.Transaction, form domain.PaymentForm, user *customerdomain.User, capture bool) (*domain.PaymentResponse, error) {
	cur, err := currency.ByISO(tx.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, tx.Currency)
	}

	captureMethod := processor.CaptureMethodManual
	if capture {
		captureMethod = processor.CaptureMethodAutomatic
	}
	params := processor.IntentParams{
		Amount:        cur.ToMinorUnit(tx.Amount),
		Currency:      strings.ToLower(cur.Code),
		PaymentMethod: form.PaymentMethodID,
		CaptureMethod: captureMethod,
		Metadata:      map[string]string{"order_id": tx.OrderID},
	}
	if s.cfg.Gateway.SendReceiptEmail && user != nil && user.Email != "" {
		params.ReceiptEmail = user.Email
	}

	customer, customerRef, err := s.resolveCustomer(ctx, form, user)
	if err != nil {
		if errors.Is(err, customerdomain.ErrPersistence) {
			return nil, err
		}
		s.log.Warn("customer resolution failed", zap.Error(err))
		return responseFromError(err), nil
	}
	params.Customer = customerRef

	row, remote, err := s.createOrUpdateIntent(ctx, tx, params, customer)
	if err != nil {
		if errors.Is(err, intentdomain.ErrReferenceChanged) {
			return nil, err
		}
		s.log.Warn("intent create failed",
			zap.String("order_id", tx.OrderID), zap.Error(err))
		return responseFromError(err), nil
	}

	if row != nil {
		if _, err := s.snapshot(ctx, row, remote); err != nil {
			return nil, err
		}
	}

	confirmed, err := s.processor.ConfirmPaymentIntent(ctx, remote.ID, s.cfg.Gateway.ReturnURL)
	if err != nil {
		s.log.Warn("intent confirm failed",
			zap.String("reference", remote.ID), zap.Error(err))
		return responseFromError(err), nil
	}
	if row != nil {
		if _, err := s.snapshot(ctx, row, confirmed); err != nil {
			return nil, err
		}
	}
	return responseFromIntent(confirmed), nil
}

// resolveCustomer prefers an explicit processor customer reference from the
// form over lazy resolution of the host user. An explicit reference is used
// verbatim even without a local row; anonymous checkouts get neither a
// customer nor a correlation row.
func (s *OrchestratorImpl) resolveCustomer(ctx context.Context, form domain.PaymentForm, user *customerdomain.User) (*customerdomain.Customer, string, error) {
	if form.Customer != "" {
		customer, err := s.customers.ByReference(ctx, form.Customer)
		if err != nil && !errors.Is(err, customerdomain.ErrNotFound) {
			return nil, "", err
		}
		return customer, form.Customer, nil
	}
	if user == nil {
		return nil, "", nil
	}
	customer, err := s.customers.Resolve(ctx, s.gatewayID, *user)
	if err != nil {
		return nil, "", err
	}
	return customer, customer.Reference, nil
}

// createOrUpdateIntent reuses the intent recorded for this order and customer
// when one exists, otherwise creates a fresh one. Both remote calls carry the
// transaction hash as idempotency key, so a retried submission lands on the
// processor exactly once.
func (s *OrchestratorImpl) createOrUpdateIntent(ctx context.Context, tx domain.Transaction, params processor.IntentParams, customer *customerdomain.Customer) (*intentdomain.PaymentIntent, *processor.PaymentIntent, error) {
	if customer == nil {
		params.Confirm = processor.False
		params.ConfirmationMethod = "manual"
		remote, err := s.processor.CreatePaymentIntent(ctx, params, tx.Hash)
		return nil, remote, err
	}

	row, err := s.intents.Find(ctx, nil, s.gatewayID, tx.OrderID, customer.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	if row != nil && row.Reference != "" {
		remote, err := s.processor.UpdatePaymentIntent(ctx, row.Reference, params, tx.Hash)
		return row, remote, err
	}

	params.Confirm = processor.False
	params.ConfirmationMethod = "manual"
	remote, err := s.processor.CreatePaymentIntent(ctx, params, tx.Hash)
	if err != nil {
		return nil, nil, err
	}
	if row == nil {
		row = &intentdomain.PaymentIntent{
			OrderID:    tx.OrderID,
			CustomerID: customer.ID,
			GatewayID:  s.gatewayID,
		}
	}
	row.Reference = remote.ID
	return row, remote, nil
}

// snapshot overwrites the stored remote state on the correlation row. A
// persistence failure here is fatal: the row is the only way the complete
// handler can find the intent again.
func (s *OrchestratorImpl) snapshot(ctx context.Context, row *intentdomain.PaymentIntent, remote *processor.PaymentIntent) (*intentdomain.PaymentIntent, error) {
	row.Reference = remote.ID
	row.IntentData = datatypes.JSON(processor.Redact(remote.Raw, "client_secret"))
	saved, err := s.intents.Save(ctx, nil, row)
	if err != nil {
		if errors.Is(err, intentdomain.ErrReferenceChanged) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	return saved, nil
}

func (s *OrchestratorImpl) Capture(ctx context.Context, tx domain.Transaction, reference string) (*domain.PaymentResponse, error) {
	captured, err := s.processor.CapturePaymentIntent(ctx, reference, tx.Hash)
	if err != nil {
		s.log.Warn("intent capture failed",
			zap.String("reference", reference), zap.Error(err))
		return responseFromError(err), nil
	}
	if err := s.refreshSnapshot(ctx, captured); err != nil {
		return nil, err
	}
	return responseFromIntent(captured), nil
}

// Refund refunds against the intent's first charge. The currency check runs
// before any remote call so an unsupported code never reaches the processor.
func (s *OrchestratorImpl) Refund(ctx context.Context, tx domain.Transaction) (*domain.PaymentResponse, error) {
	cur, err := currency.ByISO(tx.Currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedCurrency, tx.Currency)
	}

	intent, err := s.processor.RetrievePaymentIntent(ctx, tx.Reference)
	if err != nil {
		s.log.Warn("intent fetch for refund failed",
			zap.String("reference", tx.Reference), zap.Error(err))
		return responseFromError(err), nil
	}
	if len(intent.Charges.Data) == 0 {
		return &domain.PaymentResponse{
			Reference: intent.ID,
			Message:   "payment intent has no charge to refund",
		}, nil
	}

	refund, err := s.processor.CreateRefund(ctx, processor.RefundParams{
		Charge: intent.Charges.Data[0].ID,
		Amount: cur.ToMinorUnit(tx.Amount),
	})
	if err != nil {
		s.log.Warn("refund failed",
			zap.String("reference", tx.Reference), zap.Error(err))
		return responseFromError(err), nil
	}

	if refreshed, err := s.processor.RetrievePaymentIntent(ctx, tx.Reference); err == nil {
		if err := s.refreshSnapshot(ctx, refreshed); err != nil {
			return nil, err
		}
	}
	return responseFromRefund(refund), nil
}

// CompletePayment reconciles an intent after the payer returns from an
// off-site authentication step. The freshly fetched state is snapshotted
// before any confirm attempt so even an abandoned flow leaves an accurate
// record.
func (s *OrchestratorImpl) CompletePayment(ctx context.Context, tx domain.Transaction) (*domain.PaymentResponse, error) {
	intent, err := s.processor.RetrievePaymentIntent(ctx, tx.Reference)
	if err != nil {
		s.log.Warn("intent fetch for completion failed",
			zap.String("reference", tx.Reference), zap.Error(err))
		return responseFromError(err), nil
	}
	if err := s.refreshSnapshot(ctx, intent); err != nil {
		return nil, err
	}

	if intent.PaymentMethod != "" && intent.Status == processor.StatusRequiresConfirmation {
		confirmed, err := s.processor.ConfirmPaymentIntent(ctx, intent.ID, s.cfg.Gateway.ReturnURL)
		if err != nil {
			s.log.Warn("intent confirm on completion failed",
				zap.String("reference", intent.ID), zap.Error(err))
			return responseFromError(err), nil
		}
		if err := s.refreshSnapshot(ctx, confirmed); err != nil {
			return nil, err
		}
		intent = confirmed
	}
	return responseFromIntent(intent), nil
}

// refreshSnapshot updates the correlation row for a remote intent when one
// exists. Intents created for anonymous checkouts have no row; that is not
// an error.
func (s *OrchestratorImpl) refreshSnapshot(ctx context.Context, remote *processor.PaymentIntent) error {
	row, err := s.intents.FindByReference(ctx, nil, remote.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	if row == nil {
		return nil
	}
	_, err = s.snapshot(ctx, row, remote)
	return err
}

// Subscribe enrolls the user's default card in the given plan. The processor
// error, if any, is logged but replaced with an opaque one so card details or
// processor internals never leak to the subscriber.
func (s *OrchestratorImpl) Subscribe(ctx context.Context, user customerdomain.User, plan domain.Plan, form domain.SubscriptionForm) (*domain.SubscriptionResponse, error) {
	customer, err := s.customers.Resolve(ctx, s.gatewayID, user)
	if err != nil {
		if errors.Is(err, customerdomain.ErrPersistence) {
			return nil, err
		}
		s.log.Warn("customer resolution for subscribe failed",
			zap.String("user_id", user.ID), zap.Error(err))
		return nil, domain.ErrSubscription
	}

	methods, err := s.processor.ListPaymentMethods(ctx, customer.Reference, "card")
	if err != nil {
		s.log.Warn("payment method listing failed",
			zap.String("customer", customer.Reference), zap.Error(err))
		return nil, domain.ErrSubscription
	}
	if len(methods) == 0 {
		return nil, domain.ErrNoPaymentSource
	}

	payload := url.Values{}
	payload.Set("customer", customer.Reference)
	payload.Set("items[0][plan]", plan.Reference)
	if form.TrialDays != nil {
		payload.Set("trial_period_days", strconv.Itoa(*form.TrialDays))
	} else {
		payload.Set("trial_from_plan", "true")
	}
	payload, err = s.policy(ctx, payload)
	if err != nil {
		s.log.Warn("subscription payload policy failed", zap.Error(err))
		return nil, domain.ErrSubscription
	}

	sub, err := s.processor.CreateSubscription(ctx, payload)
	if err != nil {
		s.log.Warn("subscription create failed",
			zap.String("plan", plan.Reference), zap.Error(err))
		return nil, domain.ErrSubscription
	}

	resp := &domain.SubscriptionResponse{
		Reference: sub.ID,
		Status:    sub.Status,
		Data:      datatypes.JSON(sub.Raw),
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		resp.TrialEnd = &t
	}
	if sub.CurrentPeriodEnd > 0 {
		t := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		resp.PeriodEnd = &t
	}
	return resp, nil
}
