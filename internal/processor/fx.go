package processor

import (
	"github.com/loomcommerce/paygate/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func Provide(cfg config.Config, reloader *config.Reloader, log *zap.Logger) *Client {
	client := NewClient(Config{
		APIKey:  cfg.Processor.APIKey,
		BaseURL: cfg.Processor.BaseURL,
		Timeout: cfg.Processor.Timeout,
	}, log)

	reloader.Subscribe(func(next config.Config) {
		client.RotateAPIKey(next.Processor.APIKey)
	})

	return client
}

var Module = fx.Module("processor",
	fx.Provide(Provide),
)
