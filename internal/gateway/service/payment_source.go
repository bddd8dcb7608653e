package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/clock"
	"github.com/loomcommerce/paygate/internal/config"
	customerdomain "github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	"github.com/loomcommerce/paygate/internal/processor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SourceParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Config    config.Config
	Processor *processor.Client
	Customers customerdomain.Directory
	Sources   domain.SourceRepository
	GenID     *snowflake.Node
	Clock     clock.Clock
}

type SourceServiceImpl struct {
	db        *gorm.DB
	log       *zap.Logger
	processor *processor.Client
	customers customerdomain.Directory
	sources   domain.SourceRepository
	genID     *snowflake.Node
	clock     clock.Clock
	gatewayID snowflake.ID
}

func NewSourceService(p SourceParams) domain.SourceService {
	return &SourceServiceImpl{
		db:        p.DB,
		log:       p.Log.Named("payment_source"),
		processor: p.Processor,
		customers: p.Customers,
		sources:   p.Sources,
		genID:     p.GenID,
		clock:     p.Clock,
		gatewayID: snowflake.ID(p.Config.Gateway.ID),
	}
}

// Create attaches the tokenized payment method to the user's processor
// customer, makes it the default for invoices, and records it locally.
func (s *SourceServiceImpl) Create(ctx context.Context, user customerdomain.User, form domain.PaymentForm) (*domain.PaymentSource, error) {
	// A token already on file is returned as is. A replayed setup
	// confirmation must not re-attach the method or duplicate the row.
	existing, err := s.sources.FindByToken(ctx, nil, form.PaymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	if existing != nil {
		return existing, nil
	}

	customer, err := s.customers.Resolve(ctx, s.gatewayID, user)
	if err != nil {
		return nil, err
	}

	method, err := s.attach(ctx, form.PaymentMethodID, customer.Reference)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentSource, err)
	}

	_, err = s.processor.UpdateCustomer(ctx, customer.Reference, processor.CustomerParams{
		DefaultPaymentMethod: method.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentSource, err)
	}

	source := &domain.PaymentSource{
		ID:          s.genID.Generate(),
		UserID:      user.ID,
		GatewayID:   s.gatewayID,
		Token:       method.ID,
		Description: describeMethod(method),
		Response:    datatypes.JSON(method.Raw),
		CreatedAt:   s.clock.Now(ctx),
	}
	if err := s.sources.Insert(ctx, nil, source); err != nil {
		return nil, fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	return source, nil
}

// attach tolerates a method that is already attached to the customer, which
// happens when the setup flow attached it during confirmation.
func (s *SourceServiceImpl) attach(ctx context.Context, token, customerRef string) (*processor.PaymentMethod, error) {
	method, err := s.processor.AttachPaymentMethod(ctx, token, customerRef)
	if err == nil {
		return method, nil
	}
	existing, retrieveErr := s.processor.RetrievePaymentMethod(ctx, token)
	if retrieveErr == nil && existing.Customer == customerRef {
		return existing, nil
	}
	return nil, err
}

// Delete detaches the method remotely and removes the local row. Processor
// rejections of the detach are swallowed: an already-detached method should
// still disappear locally.
func (s *SourceServiceImpl) Delete(ctx context.Context, token string) error {
	if err := s.processor.DetachPaymentMethod(ctx, token); err != nil {
		s.log.Warn("payment method detach rejected",
			zap.String("token", token), zap.Error(err))
	}
	if err := s.sources.DeleteByToken(ctx, nil, token); err != nil {
		return fmt.Errorf("%w: %v", customerdomain.ErrPersistence, err)
	}
	return nil
}

func (s *SourceServiceImpl) ListByUser(ctx context.Context, userID string) ([]domain.PaymentSource, error) {
	return s.sources.ListByUser(ctx, nil, userID)
}

// describeMethod renders a human label like "Visa ending in ••••4242".
// Methods without card details fall back to the method type.
func describeMethod(method *processor.PaymentMethod) string {
	if method.Card.Last4 == "" {
		return method.Type
	}
	brand := method.Card.Brand
	if brand != "" {
		brand = strings.ToUpper(brand[:1]) + brand[1:]
	}
	return fmt.Sprintf("%s ending in ••••%s", brand, method.Card.Last4)
}
