package config

import (
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ProcessorConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	PublishableKey string        `mapstructure:"publishable_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

type GatewayConfig struct {
	ID               int64  `mapstructure:"id"`
	ReturnURL        string `mapstructure:"return_url"`
	SetupReturnURL   string `mapstructure:"setup_return_url"`
	SendReceiptEmail bool   `mapstructure:"send_receipt_email"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Processor ProcessorConfig `mapstructure:"processor"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Log       LogConfig       `mapstructure:"log"`
}

// Reloader fans out config updates picked up from the config file watcher.
// API keys rotate without a restart; everything else needs one.
type Reloader struct {
	mu   sync.Mutex
	subs []func(Config)
}

func (r *Reloader) Subscribe(fn func(Config)) {
	r.mu.Lock()
	r.subs = append(r.subs, fn)
	r.mu.Unlock()
}

func (r *Reloader) publish(cfg Config) {
	r.mu.Lock()
	subs := make([]func(Config), len(r.subs))
	copy(subs, r.subs)
	r.mu.Unlock()
	for _, fn := range subs {
		fn(cfg)
	}
}

func Load() (Config, *Reloader, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("processor.base_url", "")
	v.SetDefault("processor.timeout", 30*time.Second)
	v.SetDefault("gateway.id", 1)
	v.SetDefault("gateway.return_url", "http://localhost:8080/api/payments/complete")
	v.SetDefault("gateway.setup_return_url", "http://localhost:8080/api/setup-intents/complete")
	v.SetDefault("gateway.send_receipt_email", false)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("PAYGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("paygate")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/paygate")

	reloader := &Reloader{}

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, nil, err
		}
		fileFound = false
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, nil, err
	}

	if fileFound {
		v.OnConfigChange(func(fsnotify.Event) {
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				return
			}
			reloader.publish(next)
		})
		v.WatchConfig()
	}

	return cfg, reloader, nil
}

var Module = fx.Module("config",
	fx.Provide(Load),
)
