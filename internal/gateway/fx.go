package gateway

import (
	"github.com/loomcommerce/paygate/internal/gateway/domain"
	"github.com/loomcommerce/paygate/internal/gateway/repository"
	"github.com/loomcommerce/paygate/internal/gateway/service"
	"go.uber.org/fx"
)

var Module = fx.Module("gateway.service",
	fx.Provide(
		repository.Provide,
		domain.DefaultSubscriptionPayloadPolicy,
		service.NewOrchestrator,
		service.NewSourceService,
		service.NewSetupFlow,
	),
)
