// internal/workers/commerce/upgrade-subscription/config.go
package upgradesubscription

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
