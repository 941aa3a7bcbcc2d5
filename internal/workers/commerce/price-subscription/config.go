// internal/workers/commerce/price-subscription/config.go
package pricesubscription

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
