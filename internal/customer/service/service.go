package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/loomcommerce/paygate/internal/clock"
	"github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/processor"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Repo      domain.Repository
	Processor *processor.Client
	GenID     *snowflake.Node
	Clock     clock.Clock
	Create    domain.CreationPolicy
	Update    domain.UpdatePolicy
}

type DirectoryImpl struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	processor *processor.Client
	genID     *snowflake.Node
	clock     clock.Clock
	create    domain.CreationPolicy
	update    domain.UpdatePolicy
}

func New(p Params) domain.Directory {
	return &DirectoryImpl{
		db:        p.DB,
		log:       p.Log.Named("customer"),
		repo:      p.Repo,
		processor: p.Processor,
		genID:     p.GenID,
		clock:     p.Clock,
		create:    p.Create,
		update:    p.Update,
	}
}

// Resolve returns the customer record for (user, gateway), creating it
// remotely and locally on first use. For an existing record the update policy
// decides whether a remote update happens at all; by default none does and
// the cached record is returned unchanged.
func (s *DirectoryImpl) Resolve(ctx context.Context, gatewayID snowflake.ID, user domain.User) (*domain.Customer, error) {
	existing, err := s.repo.FindByUserAndGateway(ctx, s.db, user.ID, gatewayID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		patch, err := s.update(ctx, existing)
		if err != nil {
			return nil, err
		}
		if patch == nil {
			return existing, nil
		}

		remote, err := s.processor.UpdateCustomer(ctx, existing.Reference, *patch)
		if err != nil {
			return nil, err
		}

		existing.Response = datatypes.JSON(remote.Raw)
		existing.UpdatedAt = s.clock.Now(ctx)
		if err := s.repo.Update(ctx, s.db, existing); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		return existing, nil
	}

	params, err := s.create(ctx, user)
	if err != nil {
		return nil, err
	}

	remote, err := s.processor.CreateCustomer(ctx, params)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now(ctx)
	customer := &domain.Customer{
		ID:        s.genID.Generate(),
		UserID:    user.ID,
		GatewayID: gatewayID,
		Reference: remote.ID,
		Response:  datatypes.JSON(remote.Raw),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, customer); err != nil {
		// The remote customer exists but the local row does not. Surface it;
		// a retry would create a duplicate remote record.
		s.log.Error("customer created remotely but local save failed",
			zap.String("reference", remote.ID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	s.log.Info("customer created",
		zap.String("user_id", user.ID),
		zap.String("reference", customer.Reference))

	return customer, nil
}

func (s *DirectoryImpl) ByID(ctx context.Context, id snowflake.ID) (*domain.Customer, error) {
	customer, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *DirectoryImpl) ByReference(ctx context.Context, reference string) (*domain.Customer, error) {
	customer, err := s.repo.FindByReference(ctx, s.db, reference)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, domain.ErrNotFound
	}
	return customer, nil
}

func (s *DirectoryImpl) Delete(ctx context.Context, id snowflake.ID) error {
	return s.repo.Delete(ctx, s.db, id)
}
