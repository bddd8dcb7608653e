package intent

import (
	"github.com/loomcommerce/paygate/internal/intent/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("intent.store",
	fx.Provide(repository.Provide),
)
