package customer

import (
	"github.com/loomcommerce/paygate/internal/customer/domain"
	"github.com/loomcommerce/paygate/internal/customer/repository"
	"github.com/loomcommerce/paygate/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(domain.DefaultCreationPolicy),
	fx.Provide(domain.DefaultUpdatePolicy),
	fx.Provide(service.New),
)
