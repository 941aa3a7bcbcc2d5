// internal/workers/communication/send-notification/config.go
package sendnotification

import "time"

type Config struct {
	EmailEnabled bool
	SMSEnabled   bool
	FromEmail    string
	SMSSenderID  string
	AWSRegion    string
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
