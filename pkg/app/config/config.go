package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config is loaded once at process start and is immutable afterwards.
type Config struct {
	BotToken     string  `envconfig:"BOT_TOKEN" required:"true"`
	SellerChatID int64   `envconfig:"SELLER_CHAT_ID" required:"true"`
	AdminChatIDs []int64 `envconfig:"ADMIN_CHAT_IDS" required:"true"`
	HTTPAddr     string  `envconfig:"HTTP_ADDR" default:":5000"`
	ProductsFile string  `envconfig:"PRODUCTS_FILE" default:"products.json"`
	OrdersDSN    string  `envconfig:"ORDERS_DSN" required:"true"`
	StaticDir    string  `envconfig:"STATIC_DIR" default:"."`
}

func Load() (*Config, error) {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "read environment config")
	}
	return &cfg, nil
}
